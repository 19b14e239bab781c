package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"user-management-api/cmd/api/infrastructure"
	"user-management-api/internal/adapter/cache"
	"user-management-api/internal/adapter/db/mongodb"
	"user-management-api/internal/adapter/db/postgres"
	ginhandler "user-management-api/internal/adapter/gin/handler"
	"user-management-api/internal/adapter/gin/middleware"
	"user-management-api/internal/adapter/gin/router"
	"user-management-api/internal/adapter/repository/cached"
	"user-management-api/internal/config"
	"user-management-api/internal/usecase/user"
	redisclient "user-management-api/pkg/redis"

	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Mongo          *mongo.Client
	DB             *gorm.DB
	RedisClient    *redisclient.Client
	TracerProvider *sdktrace.TracerProvider
	UserUC         *user.Usecase
	RateLimiter    *middleware.RateLimiter
	GinHandler     *ginhandler.UserHandler
	Ping           router.PingFunc

	migrate func(ctx context.Context) error
}

// NewContainer creates and initializes all application dependencies.
// Resources opened before a failure are released before returning.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (c *Container, err error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c = &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
			c = nil
		}
	}()

	if cfg.Telemetry.TracingEnabled {
		c.TracerProvider, err = infrastructure.NewTracerProvider(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	repo, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		c.RedisClient, err = infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}

		userCache := cache.NewRedisUserCache(
			c.RedisClient.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(repo, userCache, l)

		if cfg.RateLimit.Enabled {
			c.RateLimiter = middleware.NewRateLimiter(
				c.RedisClient.Client,
				middleware.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
					BurstCapacity:     cfg.RateLimit.BurstCapacity,
				},
				l,
			)
		}
	}

	c.UserUC = user.New(repo, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// newStore connects the configured backend and returns its repository.
func (c *Container) newStore(ctx context.Context) (user.Repository, error) {
	cfg, l := c.Config, c.Logger

	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := infrastructure.NewDatabase(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		c.Ping = func(ctx context.Context) error { return infrastructure.PingDatabase(ctx, db) }

		repo := postgres.NewUserRepoPG(db, l)
		c.migrate = repo.AutoMigrate
		return repo, nil

	default:
		client, err := infrastructure.NewMongoClient(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo: %w", err)
		}
		c.Mongo = client
		c.Ping = func(ctx context.Context) error { return infrastructure.PingMongo(ctx, client) }

		coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		repo := mongodb.NewUserRepoMongo(coll, l)
		c.migrate = repo.EnsureIndexes
		return repo, nil
	}
}

// Migrate creates the unique email index (Mongo) or the users table (PostgreSQL).
// It is idempotent.
func (c *Container) Migrate(ctx context.Context) error {
	if c.migrate == nil {
		return errors.New("no store configured")
	}
	if err := c.migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	c.Logger.Info("store schema is up to date", zap.String("driver", c.Config.Store.Driver))
	return nil
}

// Close closes all resources held by the container
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if c.Mongo != nil {
		if err := infrastructure.CloseMongo(ctx, c.Mongo); err != nil {
			errs = append(errs, err)
		}
	}

	if c.TracerProvider != nil {
		if err := c.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
