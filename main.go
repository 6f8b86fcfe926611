package main

import (
	"crypto/tls"
	"time"

	"github.com/atlas-mobile/location-service/config"
	"github.com/atlas-mobile/location-service/handlers"
	"github.com/atlas-mobile/location-service/internal/analytics"
	"github.com/atlas-mobile/location-service/logger"
	"github.com/atlas-mobile/location-service/platform"
	"github.com/atlas-mobile/location-service/router"
	"github.com/atlas-mobile/location-service/services"
	"github.com/atlas-mobile/location-service/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize logger
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() {
		_ = logger.Close()
	}()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client with TLS in production
	redisOptions := &redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}
	if cfg.Server.Environment == config.EnvProduction || cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{
			ServerName: cfg.Redis.Address,
			MinVersion: tls.VersionTLS12,
		}
	}
	redisClient := redis.NewClient(redisOptions)
	defer func() {
		_ = redisClient.Close()
	}()

	// Platform collaborators. The simulator stands in for a real device
	// location API; deployments embedding this service supply their own
	// platform.Monitor and platform.Source implementations.
	sim := platform.NewSimulator()
	standardSource := sim.NewSource(45.5231, -122.6765, 2*time.Second)
	changeSource := sim.NewSource(45.5231, -122.6765, 30*time.Second)

	// Initialize services
	sink := analytics.NewRedisSink(redisClient)
	settings := store.NewRedisSettingsStore(redisClient)
	locationService := services.NewLocationService(
		cfg.Location,
		sim,
		standardSource,
		changeSource,
		sink,
		settings,
	)

	// Router setup
	locationHandler := handlers.NewLocationHandler(locationService)
	r := router.SetupRouter(router.Dependencies{
		Config:          cfg,
		LocationHandler: locationHandler,
	})

	log.Infow("Starting location service", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
