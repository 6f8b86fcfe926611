// Package handlers exposes the location service operation surface over
// HTTP in front of the orchestration layer.
package handlers

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/atlas-mobile/location-service/errors"
	"github.com/atlas-mobile/location-service/logger"
	"github.com/atlas-mobile/location-service/services"
	"github.com/atlas-mobile/location-service/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LocationHandler handles location-related API requests.
type LocationHandler struct {
	service *services.LocationService
	logger  *zap.SugaredLogger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(service *services.LocationService) *LocationHandler {
	return &LocationHandler{
		service: service,
		logger:  logger.GetLogger().Named("handlers"),
	}
}

// respondError maps structured application errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "type": appErr.Type})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// StartStandardHandler starts the continuous high-accuracy provider.
func (h *LocationHandler) StartStandardHandler(c *gin.Context) {
	if err := h.service.StartReportingStandardLocation(); err != nil {
		h.logger.Warnw("Standard location start refused", "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.service.StandardLocationStatus()})
}

// StopStandardHandler stops the continuous provider.
func (h *LocationHandler) StopStandardHandler(c *gin.Context) {
	h.service.StopReportingStandardLocation()
	c.JSON(http.StatusOK, gin.H{"status": h.service.StandardLocationStatus()})
}

// StartSignificantHandler starts the significant-change provider.
func (h *LocationHandler) StartSignificantHandler(c *gin.Context) {
	if err := h.service.StartReportingSignificantLocationChanges(); err != nil {
		h.logger.Warnw("Significant-change start refused", "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.service.SignificantChangeStatus()})
}

// StopSignificantHandler stops the significant-change provider.
func (h *LocationHandler) StopSignificantHandler(c *gin.Context) {
	h.service.StopReportingSignificantLocationChanges()
	c.JSON(http.StatusOK, gin.H{"status": h.service.SignificantChangeStatus()})
}

// CurrentLocationHandler performs a one-shot location request bounded by
// the request context.
func (h *LocationHandler) CurrentLocationHandler(c *gin.Context) {
	loc, err := h.service.ReportCurrentLocation(c.Request.Context())
	if err != nil {
		h.logger.Warnw("One-shot location request failed", "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// LastLocationHandler returns the last reported location, if any.
func (h *LocationHandler) LastLocationHandler(c *gin.Context) {
	last := h.service.LastReportedLocation()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location has been reported"})
		return
	}
	c.JSON(http.StatusOK, last)
}

// StatusHandler reports per-provider status and the authorization state.
func (h *LocationHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"standard":      h.service.StandardLocationStatus(),
		"significant":   h.service.SignificantChangeStatus(),
		"single":        h.service.SingleLocationStatus(),
		"authorization": h.service.AuthorizationState(),
		"willPrompt":    h.service.WillPromptUser(),
	})
}

// ConfigResponse is the JSON shape of the service configuration surface.
type ConfigResponse struct {
	ServiceEnabled                       bool    `json:"serviceEnabled"`
	PromptUserForLocationServices        bool    `json:"promptUserForLocationServices"`
	AutomaticLocationOnForegroundEnabled bool    `json:"automaticLocationOnForegroundEnabled"`
	BackgroundLocationServiceEnabled     bool    `json:"backgroundLocationServiceEnabled"`
	MinimumForegroundIntervalSeconds     int     `json:"minimumForegroundIntervalSeconds"`
	Purpose                              string  `json:"purpose"`
	DesiredAccuracyMeters                float64 `json:"desiredAccuracyMeters"`
	DistanceFilterMeters                 float64 `json:"distanceFilterMeters"`
}

// ConfigUpdateRequest carries optional configuration updates; only the
// fields present in the request are applied.
type ConfigUpdateRequest struct {
	ServiceEnabled                       *bool    `json:"serviceEnabled"`
	PromptUserForLocationServices        *bool    `json:"promptUserForLocationServices"`
	AutomaticLocationOnForegroundEnabled *bool    `json:"automaticLocationOnForegroundEnabled"`
	BackgroundLocationServiceEnabled     *bool    `json:"backgroundLocationServiceEnabled"`
	MinimumForegroundIntervalSeconds     *int     `json:"minimumForegroundIntervalSeconds"`
	Purpose                              *string  `json:"purpose"`
	DesiredAccuracyMeters                *float64 `json:"desiredAccuracyMeters"`
	DistanceFilterMeters                 *float64 `json:"distanceFilterMeters"`
}

// GetConfigHandler returns the current configuration.
func (h *LocationHandler) GetConfigHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.currentConfig())
}

// UpdateConfigHandler applies a partial configuration update. Validation
// failures reject the offending field and abort the request.
func (h *LocationHandler) UpdateConfigHandler(c *gin.Context) {
	var req ConfigUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if req.ServiceEnabled != nil {
		if err := h.service.SetServiceEnabled(c.Request.Context(), *req.ServiceEnabled); err != nil {
			h.logger.Errorw("Failed to persist service-enabled flag", "error", err)
			respondError(c, apperrors.Wrap(err, apperrors.ServerError, "failed to persist service-enabled flag"))
			return
		}
	}
	if req.PromptUserForLocationServices != nil {
		h.service.SetPromptUserForLocationServices(*req.PromptUserForLocationServices)
	}
	if req.AutomaticLocationOnForegroundEnabled != nil {
		h.service.SetAutomaticLocationOnForegroundEnabled(*req.AutomaticLocationOnForegroundEnabled)
	}
	if req.BackgroundLocationServiceEnabled != nil {
		h.service.SetBackgroundLocationServiceEnabled(*req.BackgroundLocationServiceEnabled)
	}
	if req.MinimumForegroundIntervalSeconds != nil {
		d := time.Duration(*req.MinimumForegroundIntervalSeconds) * time.Second
		if err := h.service.SetMinimumTimeBetweenForegroundUpdates(d); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Purpose != nil {
		h.service.SetPurpose(*req.Purpose)
	}
	if req.DesiredAccuracyMeters != nil {
		if err := h.service.SetStandardLocationDesiredAccuracy(*req.DesiredAccuracyMeters); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.DistanceFilterMeters != nil {
		if err := h.service.SetStandardLocationDistanceFilter(*req.DistanceFilterMeters); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, h.currentConfig())
}

// ReportRequest is the payload for direct analytics reports.
type ReportRequest struct {
	Location types.Location `json:"location" binding:"required"`
	Provider string         `json:"provider" binding:"required"`
}

// ReportLocationHandler sends a location directly to analytics,
// attributed to the named provider.
func (h *LocationHandler) ReportLocationHandler(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	h.service.ReportLocationToAnalytics(req.Location, req.Provider)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// ForegroundHandler receives the host's app-foreground signal.
func (h *LocationHandler) ForegroundHandler(c *gin.Context) {
	h.service.HandleAppForeground(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// BackgroundHandler receives the host's app-background signal.
func (h *LocationHandler) BackgroundHandler(c *gin.Context) {
	h.service.HandleAppBackground()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *LocationHandler) currentConfig() ConfigResponse {
	return ConfigResponse{
		ServiceEnabled:                       h.service.ServiceEnabled(),
		PromptUserForLocationServices:        h.service.PromptUserForLocationServices(),
		AutomaticLocationOnForegroundEnabled: h.service.AutomaticLocationOnForegroundEnabled(),
		BackgroundLocationServiceEnabled:     h.service.BackgroundLocationServiceEnabled(),
		MinimumForegroundIntervalSeconds:     int(h.service.MinimumTimeBetweenForegroundUpdates() / time.Second),
		Purpose:                              h.service.Purpose(),
		DesiredAccuracyMeters:                h.service.StandardLocationDesiredAccuracy(),
		DistanceFilterMeters:                 h.service.StandardLocationDistanceFilter(),
	}
}
