// Package router wires the HTTP routes for the location service.
package router

import (
	"net/http"
	"time"

	"github.com/atlas-mobile/location-service/config"
	"github.com/atlas-mobile/location-service/handlers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds everything required for setting up routes.
type Dependencies struct {
	Config          *config.Config
	LocationHandler *handlers.LocationHandler
}

// SetupRouter configures and returns the main Gin engine with all routes
// defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.Server.Version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Versioned API Group (v1)
	v1 := r.Group("/v1")
	{
		location := v1.Group("/location")
		{
			location.POST("/standard/start", deps.LocationHandler.StartStandardHandler)
			location.POST("/standard/stop", deps.LocationHandler.StopStandardHandler)
			location.POST("/significant/start", deps.LocationHandler.StartSignificantHandler)
			location.POST("/significant/stop", deps.LocationHandler.StopSignificantHandler)
			location.GET("/current", deps.LocationHandler.CurrentLocationHandler)
			location.GET("/last", deps.LocationHandler.LastLocationHandler)
			location.GET("/status", deps.LocationHandler.StatusHandler)
			location.GET("/config", deps.LocationHandler.GetConfigHandler)
			location.PUT("/config", deps.LocationHandler.UpdateConfigHandler)
			location.POST("/report", deps.LocationHandler.ReportLocationHandler)
			location.POST("/foreground", deps.LocationHandler.ForegroundHandler)
			location.POST("/background", deps.LocationHandler.BackgroundHandler)
		}
	}

	return r
}
