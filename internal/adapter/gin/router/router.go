package router

import (
	"context"
	"net/http"
	"time"

	"user-management-api/internal/adapter/gin/handler"
	"user-management-api/internal/adapter/gin/middleware"
	"user-management-api/pkg/logger"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// PingFunc reports whether a backing store is reachable.
type PingFunc func(ctx context.Context) error

// Options configures the router. Nil RateLimiter and Ping are allowed.
type Options struct {
	ServiceName    string
	MetricsEnabled bool
	TracingEnabled bool
	RateLimiter    *middleware.RateLimiter
	Ping           PingFunc
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	if opts.TracingEnabled {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger(log))

	if opts.MetricsEnabled {
		p := ginprometheus.NewPrometheus("http")
		// Label by route template so user IDs do not explode cardinality
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			if route := c.FullPath(); route != "" {
				return route
			}
			return "unmatched"
		}
		p.Use(router)
	}

	router.GET("/health", healthHandler(opts, log))

	users := router.Group("/users")
	if opts.RateLimiter != nil {
		users.Use(opts.RateLimiter.Middleware())
	}
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.PATCH("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}

func healthHandler(opts Options, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := opts.Ping(ctx); err != nil {
				logger.WithContext(c.Request.Context(), log).Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": opts.ServiceName,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	}
}
