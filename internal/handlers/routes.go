package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"twilio-functions-utils/internal/config"
	"twilio-functions-utils/internal/metrics"
	"twilio-functions-utils/internal/middleware"
)

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Functions Functions
	Logger    logrus.FieldLogger
}

// SetupRoutes mounts every registered function at /<name> next to the
// health and metrics endpoints
func SetupRoutes(router *gin.Engine, cfg *RouterConfig) {
	handler := NewFunctionHandler(cfg.Functions, cfg.Logger)

	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	methods := []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	for _, name := range cfg.Functions.Names() {
		router.Match(methods, "/"+name, handler.Invoke)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     http.StatusText(http.StatusNotFound),
			Message:   "no function at " + c.Request.URL.Path,
			RequestID: c.GetString(middleware.RequestIDKey),
		})
	})
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, cfg *config.Config, logger logrus.FieldLogger) {
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimiter(logger, cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PerformanceMonitor(logger, time.Second))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler(logger))
}
