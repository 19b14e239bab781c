package logger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.uber.org/zap"
)

// NewMongoCommandMonitor logs driver commands through zap.
// Failed commands log at error, commands slower than slowThreshold at warn,
// everything else at debug.
func NewMongoCommandMonitor(l *zap.Logger, slowThreshold time.Duration) *event.CommandMonitor {
	return &event.CommandMonitor{
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			fields := commandFields(e.CommandFinishedEvent)
			log := WithContext(ctx, l)

			if slowThreshold > 0 && e.Duration > slowThreshold {
				fields = append(fields, zap.Duration("threshold", slowThreshold))
				log.Warn("mongo slow command", fields...)
				return
			}
			log.Debug("mongo command", fields...)
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			fields := append(commandFields(e.CommandFinishedEvent), zap.String("failure", e.Failure))
			WithContext(ctx, l).Error("mongo command failed", fields...)
		},
	}
}

func commandFields(e event.CommandFinishedEvent) []zap.Field {
	return []zap.Field{
		zap.String("command", e.CommandName),
		zap.String("database", e.DatabaseName),
		zap.Int64("driver_request_id", e.RequestID),
		zap.Duration("elapsed", e.Duration),
	}
}
