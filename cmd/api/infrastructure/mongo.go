package infrastructure

import (
	"context"
	"fmt"
	"time"

	"user-management-api/internal/config"
	"user-management-api/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// NewMongoClient connects to MongoDB and verifies the primary is reachable.
func NewMongoClient(ctx context.Context, cfg *config.Config, l *zap.Logger) (*mongo.Client, error) {
	connectTimeout := time.Duration(cfg.Mongo.ConnectTimeoutSeconds) * time.Second
	slow := time.Duration(cfg.Logger.SlowQuerySeconds * float64(time.Second))

	opts := options.Client().
		ApplyURI(cfg.Mongo.URL).
		SetMaxPoolSize(cfg.Mongo.MaxPoolSize).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout).
		SetMonitor(logger.NewMongoCommandMonitor(l, slow))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	l.Info("mongo connected successfully",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Mongo.Collection),
		zap.Uint64("max_pool_size", cfg.Mongo.MaxPoolSize),
	)

	return client, nil
}

// PingMongo checks that the primary answers.
func PingMongo(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

// CloseMongo disconnects the client, waiting for in-flight operations until ctx expires.
func CloseMongo(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongo: %w", err)
	}
	return nil
}
