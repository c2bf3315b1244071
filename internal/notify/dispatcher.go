package notify

import (
	"context"

	"hrty-backend/internal/models"

	"go.uber.org/zap"
)

// Dispatcher delivers newly created alerts. Delivery happens after the alert is
// persisted and is best effort: failures are logged, never returned.
type Dispatcher struct {
	stream  *StreamPublisher
	webhook *WebhookClient
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher. Either channel may be nil.
func NewDispatcher(stream *StreamPublisher, webhook *WebhookClient, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		stream:  stream,
		webhook: webhook,
		logger:  logger,
	}
}

// Dispatch publishes every alert to the stream and sends critical ones to the webhook.
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.AlertEvent) {
	for _, alert := range alerts {
		if d.stream != nil {
			if _, err := d.stream.Publish(ctx, alert); err != nil {
				d.logger.Error("Failed to publish alert",
					zap.String("event_id", alert.EventID),
					zap.Error(err),
				)
			}
		}
		if d.webhook != nil && alert.Severity == models.StatusCritical {
			if err := d.webhook.Send(ctx, alert); err != nil {
				d.logger.Error("Failed to send alert webhook",
					zap.String("event_id", alert.EventID),
					zap.Error(err),
				)
			}
		}
	}
}
