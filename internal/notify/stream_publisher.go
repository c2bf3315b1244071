package notify

import (
	"context"
	"fmt"

	commonredis "hrty-backend/common/redis"
	"hrty-backend/internal/config"
	"hrty-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StreamPublisher appends new alerts to a Redis stream for downstream consumers.
type StreamPublisher struct {
	redisClient *redis.Client
	stream      string
	maxLen      int64
	logger      *zap.Logger
}

// NewStreamPublisher creates the publisher.
func NewStreamPublisher(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{
		redisClient: redisClient,
		stream:      cfg.Alert.Stream.Name,
		maxLen:      cfg.Alert.Stream.MaxLen,
		logger:      logger,
	}
}

// Publish XADDs one alert and returns the entry id.
func (p *StreamPublisher) Publish(ctx context.Context, event models.AlertEvent) (string, error) {
	id, err := commonredis.PublishJSONToStream(ctx, p.redisClient, p.stream, p.maxLen, NewAlertNotification(event))
	if err != nil {
		return "", fmt.Errorf("failed to publish alert to stream: %w", err)
	}

	p.logger.Debug("Published alert to stream",
		zap.String("stream", p.stream),
		zap.String("stream_id", id),
		zap.String("event_id", event.EventID),
	)
	return id, nil
}
