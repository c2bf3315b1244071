package notify

import (
	"context"
	"fmt"
	"time"

	"hrty-backend/internal/config"
	"hrty-backend/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookClient posts critical alerts to the care team's endpoint.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookClient returns nil when no webhook URL is configured.
func NewWebhookClient(cfg *config.Config, logger *zap.Logger) *WebhookClient {
	if cfg.Alert.Webhook.URL == "" {
		return nil
	}

	client := resty.New().
		SetTimeout(cfg.Alert.Webhook.Timeout).
		SetRetryCount(cfg.Alert.Webhook.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookClient{
		httpClient: client,
		url:        cfg.Alert.Webhook.URL,
		logger:     logger,
	}
}

// Send posts one alert. Any non-2xx answer after retries is an error.
func (w *WebhookClient) Send(ctx context.Context, event models.AlertEvent) error {
	resp, err := w.httpClient.R().
		SetContext(ctx).
		SetBody(NewAlertNotification(event)).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to call alert webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("alert webhook returned %d", resp.StatusCode())
	}

	w.logger.Info("Alert sent to webhook",
		zap.String("event_id", event.EventID),
		zap.String("patient_id", event.PatientID),
		zap.String("category", string(event.Category)),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
