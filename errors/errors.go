package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ValidationError          ErrorType = "VALIDATION_ERROR"
	ProviderStartError       ErrorType = "PROVIDER_START_FAILED"
	AuthorizationDeniedError ErrorType = "AUTHORIZATION_DENIED"
	ObservationTimeoutError  ErrorType = "OBSERVATION_TIMEOUT"
	ProviderFaultError       ErrorType = "PROVIDER_FAULT"
	RequestCanceledError     ErrorType = "REQUEST_CANCELED"
	ServerError              ErrorType = "SERVER_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Raw
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// Helper functions for common errors

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func ProviderStartFailed(provider string, err error) *AppError {
	return &AppError{
		Type:       ProviderStartError,
		Message:    fmt.Sprintf("provider %q refused to start", provider),
		Detail:     errDetail(err),
		HTTPStatus: http.StatusServiceUnavailable,
		Raw:        err,
	}
}

func AuthorizationDenied(message string) *AppError {
	return &AppError{
		Type:       AuthorizationDeniedError,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func ObservationTimeout(message string) *AppError {
	return &AppError{
		Type:       ObservationTimeoutError,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func ProviderFault(provider string, err error) *AppError {
	return &AppError{
		Type:       ProviderFaultError,
		Message:    fmt.Sprintf("provider %q reported a hard failure", provider),
		Detail:     errDetail(err),
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

func RequestCanceled(message string) *AppError {
	return &AppError{
		Type:       RequestCanceledError,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Type predicates used by callers that branch on error kind.

func IsAuthorizationDenied(err error) bool {
	return isType(err, AuthorizationDeniedError)
}

func IsTimeout(err error) bool {
	return isType(err, ObservationTimeoutError)
}

func IsValidation(err error) bool {
	return isType(err, ValidationError)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case AuthorizationDeniedError:
		return http.StatusForbidden
	case ObservationTimeoutError:
		return http.StatusGatewayTimeout
	case ProviderStartError:
		return http.StatusServiceUnavailable
	case ProviderFaultError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
