package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/config"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/service"
	"github.com/Linking-Dots/Aero-HR-sub002/internal/wizard"
	"github.com/Linking-Dots/Aero-HR-sub002/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. wizards may be nil, in
// which case the hosted wizard endpoints are not mounted; db may be nil when
// there is no database to probe.
func NewRouter(services *service.Services, wizards *wizard.Store, db Pinger, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxSize + multipartOverhead

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	userHandler := NewUserHandler(services, cfg, log)
	orgHandler := NewOrgHandler(services, log)
	uploadHandler := NewUploadHandler(services, cfg, log)

	router.GET("/health", healthCheck)
	router.GET("/ready", readyCheck(db, log))
	router.GET("/metrics", metricsHandler(wizards))

	if cfg.Upload.Dir != "" {
		router.Static("/uploads", cfg.Upload.Dir)
	}

	// API v1
	v1 := router.Group("/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.POST("/check/:field", userHandler.CheckAvailability)
		}

		v1.GET("/departments", orgHandler.Departments)
		v1.GET("/designations", orgHandler.Designations)
		v1.GET("/report-to", orgHandler.ReportTo)

		v1.POST("/uploads/profile-image", uploadHandler.ProfileImage)

		if wizards != nil {
			wizardHandler := NewWizardHandler(wizards, cfg, log)
			sessions := v1.Group("/wizard/sessions")
			{
				sessions.POST("", wizardHandler.Open)
				sessions.GET("/:id", wizardHandler.View)
				sessions.DELETE("/:id", wizardHandler.Close)
				sessions.PATCH("/:id/fields", wizardHandler.ChangeFields)
				sessions.POST("/:id/next", wizardHandler.Next)
				sessions.POST("/:id/previous", wizardHandler.Previous)
				sessions.POST("/:id/submit", wizardHandler.Submit)
				sessions.PUT("/:id/profile-image", wizardHandler.SelectImage)
				sessions.DELETE("/:id/profile-image", wizardHandler.RemoveImage)
				sessions.GET("/:id/profile-image/preview", wizardHandler.Preview)
			}
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   logger.ServiceName,
	})
}

// readyCheck reports whether the database answers
func readyCheck(db Pinger, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				log.Warn().Err(err).Msg("Database health check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// metricsHandler reports open wizard sessions
func metricsHandler(wizards *wizard.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		open := 0
		if wizards != nil {
			open = wizards.Len()
		}
		c.JSON(http.StatusOK, gin.H{
			"wizard": gin.H{
				"open_sessions": open,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
