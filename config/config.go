// Package config handles loading and validation of application configuration
// from environment variables and potentially configuration files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/atlas-mobile/location-service/logger"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	// DefaultPurpose is shown to the user when the platform prompts for
	// location permission and no purpose was configured.
	DefaultPurpose = "Location services"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
}

// RedisConfig holds Redis connection details. Redis backs both the
// analytics event channel and the persisted settings store.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS" yaml:"address"`
	Password     string `mapstructure:"PASSWORD" yaml:"password"`
	DB           int    `mapstructure:"DB" yaml:"db"`
	UseTLS       bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	PoolSize     int    `mapstructure:"POOL_SIZE" yaml:"pool_size"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS" yaml:"min_idle_conns"`
}

// LocationConfig holds the location service settings. ServiceEnabled is
// the initial value only; the runtime value is persisted through the
// settings store so it survives restarts.
type LocationConfig struct {
	ServiceEnabled                       bool    `mapstructure:"SERVICE_ENABLED" yaml:"service_enabled"`
	PromptUserForLocationServices        bool    `mapstructure:"PROMPT_USER" yaml:"prompt_user"`
	AutomaticLocationOnForegroundEnabled bool    `mapstructure:"AUTOMATIC_FOREGROUND" yaml:"automatic_foreground"`
	BackgroundLocationServiceEnabled     bool    `mapstructure:"BACKGROUND_ENABLED" yaml:"background_enabled"`
	MinimumForegroundIntervalSeconds     int     `mapstructure:"MIN_FOREGROUND_INTERVAL_SECONDS" yaml:"min_foreground_interval_seconds"`
	SingleLocationTimeoutSeconds         int     `mapstructure:"SINGLE_LOCATION_TIMEOUT_SECONDS" yaml:"single_location_timeout_seconds"`
	SingleRequestStopsContinuous         bool    `mapstructure:"SINGLE_REQUEST_STOPS_CONTINUOUS" yaml:"single_request_stops_continuous"`
	Purpose                              string  `mapstructure:"PURPOSE" yaml:"purpose"`
	DesiredAccuracyMeters                float64 `mapstructure:"DESIRED_ACCURACY_METERS" yaml:"desired_accuracy_meters"`
	DistanceFilterMeters                 float64 `mapstructure:"DISTANCE_FILTER_METERS" yaml:"distance_filter_meters"`
}

// MinimumTimeBetweenForegroundUpdates returns the foreground throttle
// interval as a duration.
func (c *LocationConfig) MinimumTimeBetweenForegroundUpdates() time.Duration {
	return time.Duration(c.MinimumForegroundIntervalSeconds) * time.Second
}

// SingleLocationTimeout returns the bounded wait applied to one-shot
// location requests.
func (c *LocationConfig) SingleLocationTimeout() time.Duration {
	return time.Duration(c.SingleLocationTimeoutSeconds) * time.Second
}

// Config aggregates all application configuration sections.
type Config struct {
	Server   ServerConfig   `mapstructure:"SERVER" yaml:"server"`
	Redis    RedisConfig    `mapstructure:"REDIS" yaml:"redis"`
	Location LocationConfig `mapstructure:"LOCATION" yaml:"location"`
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, binds environment variables to config struct fields,
// unmarshals the configuration, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 3)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)
	v.SetDefault("LOCATION.SERVICE_ENABLED", false)
	v.SetDefault("LOCATION.PROMPT_USER", false)
	v.SetDefault("LOCATION.AUTOMATIC_FOREGROUND", false)
	v.SetDefault("LOCATION.BACKGROUND_ENABLED", false)
	v.SetDefault("LOCATION.MIN_FOREGROUND_INTERVAL_SECONDS", 120)
	v.SetDefault("LOCATION.SINGLE_LOCATION_TIMEOUT_SECONDS", 30)
	v.SetDefault("LOCATION.SINGLE_REQUEST_STOPS_CONTINUOUS", false)
	v.SetDefault("LOCATION.PURPOSE", DefaultPurpose)
	v.SetDefault("LOCATION.DESIRED_ACCURACY_METERS", 10.0)
	v.SetDefault("LOCATION.DISTANCE_FILTER_METERS", 0.0)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables
	envBindings := [][2]string{
		// Server config
		{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		// Redis config
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		// Location config
		{"LOCATION.SERVICE_ENABLED", "LOCATION_SERVICE_ENABLED"},
		{"LOCATION.PROMPT_USER", "LOCATION_PROMPT_USER"},
		{"LOCATION.AUTOMATIC_FOREGROUND", "LOCATION_AUTOMATIC_FOREGROUND"},
		{"LOCATION.BACKGROUND_ENABLED", "LOCATION_BACKGROUND_ENABLED"},
		{"LOCATION.MIN_FOREGROUND_INTERVAL_SECONDS", "LOCATION_MIN_FOREGROUND_INTERVAL_SECONDS"},
		{"LOCATION.SINGLE_LOCATION_TIMEOUT_SECONDS", "LOCATION_SINGLE_LOCATION_TIMEOUT_SECONDS"},
		{"LOCATION.SINGLE_REQUEST_STOPS_CONTINUOUS", "LOCATION_SINGLE_REQUEST_STOPS_CONTINUOUS"},
		{"LOCATION.PURPOSE", "LOCATION_PURPOSE"},
		{"LOCATION.DESIRED_ACCURACY_METERS", "LOCATION_DESIRED_ACCURACY_METERS"},
		{"LOCATION.DISTANCE_FILTER_METERS", "LOCATION_DISTANCE_FILTER_METERS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"redis_address", v.GetString("REDIS.ADDRESS"),
		"min_foreground_interval", v.GetInt("LOCATION.MIN_FOREGROUND_INTERVAL_SECONDS"),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validateConfig checks configuration values that would otherwise surface
// as hard-to-trace runtime failures.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis address is required")
	}
	return validateLocationConfig(&cfg.Location)
}

// validateLocationConfig validates the location section. Invalid values
// are rejected, never clamped.
func validateLocationConfig(lc *LocationConfig) error {
	if lc.MinimumForegroundIntervalSeconds < 0 {
		return fmt.Errorf("minimum foreground interval must be non-negative, got %d", lc.MinimumForegroundIntervalSeconds)
	}
	if lc.SingleLocationTimeoutSeconds <= 0 {
		return fmt.Errorf("single location timeout must be positive, got %d", lc.SingleLocationTimeoutSeconds)
	}
	if lc.DesiredAccuracyMeters < 0 {
		return fmt.Errorf("desired accuracy must be non-negative, got %f", lc.DesiredAccuracyMeters)
	}
	if lc.DistanceFilterMeters < 0 {
		return fmt.Errorf("distance filter must be non-negative, got %f", lc.DistanceFilterMeters)
	}
	if lc.Purpose == "" {
		lc.Purpose = DefaultPurpose
	}
	return nil
}
