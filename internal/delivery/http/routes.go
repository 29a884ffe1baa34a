package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pricecomp/backend/config"
	"github.com/sirupsen/logrus"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger logrus.FieldLogger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()

	// Forwarding headers are honoured only from configured proxies, so the
	// per-IP limiter keys on the real peer address by default.
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP)))
	}
	{
		compare := v1.Group("/compare")
		{
			compare.POST("/search", handler.SearchPrices)
		}
	}

	return router
}
