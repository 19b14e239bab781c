package server

import (
	"net/http"
	"time"

	"user-management-api/cmd/api/di"
	ginrouter "user-management-api/internal/adapter/gin/router"
	"user-management-api/internal/config"

	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(cfg *config.Config, c *di.Container, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(c.GinHandler, ginrouter.Options{
		ServiceName:    cfg.Logger.ServiceName,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
		TracingEnabled: cfg.Telemetry.TracingEnabled,
		RateLimiter:    c.RateLimiter,
		Ping:           c.Ping,
	}, l)

	l.Info("Gin REST API configured",
		zap.String("address", cfg.App.Address()),
		zap.Bool("metrics", cfg.Telemetry.MetricsEnabled),
		zap.Bool("tracing", cfg.Telemetry.TracingEnabled),
		zap.Bool("rate_limit", c.RateLimiter != nil),
	)

	return &http.Server{
		Addr:              cfg.App.Address(),
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
