package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonmqtt "hrty-backend/common/mqtt"
	"hrty-backend/internal/config"
	"hrty-backend/internal/models"

	"go.uber.org/zap"
)

// Reading metrics accepted on the device topic.
const (
	MetricWeight           = "weight"
	MetricBloodPressure    = "blood_pressure"
	MetricHeartRate        = "heart_rate"
	MetricOxygenSaturation = "oxygen_saturation"
)

// DeviceReading is the JSON payload a home device publishes.
type DeviceReading struct {
	Metric     string   `json:"metric"`
	Value      *float64 `json:"value,omitempty"`
	Systolic   *int     `json:"systolic,omitempty"`
	Diastolic  *int     `json:"diastolic,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	MeasuredAt string   `json:"measured_at"`
}

// ReadingRecorder records a vitals update and evaluates it.
type ReadingRecorder interface {
	RecordReading(ctx context.Context, entry models.DailyEntry) error
}

// Subscriber is the part of the MQTT client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler commonmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// ReadingConsumer turns device readings into daily-entry updates.
type ReadingConsumer struct {
	config     *config.Config
	subscriber Subscriber
	recorder   ReadingRecorder
	logger     *zap.Logger

	ctx context.Context
}

// NewReadingConsumer creates the consumer.
func NewReadingConsumer(
	cfg *config.Config,
	subscriber Subscriber,
	recorder ReadingRecorder,
	logger *zap.Logger,
) *ReadingConsumer {
	return &ReadingConsumer{
		config:     cfg,
		subscriber: subscriber,
		recorder:   recorder,
		logger:     logger,
		ctx:        context.Background(),
	}
}

// Start subscribes and blocks until ctx is done.
func (c *ReadingConsumer) Start(ctx context.Context) error {
	c.ctx = ctx
	topic := c.config.MQTT.Topic
	if err := c.subscriber.Subscribe(topic, c.config.MQTT.QoS, c.HandleMessage); err != nil {
		return err
	}
	c.logger.Info("Subscribed to device readings", zap.String("topic", topic))

	<-ctx.Done()

	if err := c.subscriber.Unsubscribe(topic); err != nil {
		c.logger.Warn("Failed to unsubscribe", zap.String("topic", topic), zap.Error(err))
	}
	return nil
}

// HandleMessage processes one message. Malformed or implausible readings are logged and dropped.
func (c *ReadingConsumer) HandleMessage(topic string, payload []byte) error {
	entry, err := ParseReading(topic, payload, c.config.Location())
	if err == nil {
		err = entry.Validate()
	}
	if err != nil {
		c.logger.Warn("Dropped device reading",
			zap.String("topic", topic),
			zap.ByteString("payload", payload),
			zap.Error(err),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
	defer cancel()
	if err := c.recorder.RecordReading(ctx, entry); err != nil {
		return fmt.Errorf("failed to record reading for %s: %w", entry.PatientID, err)
	}

	c.logger.Debug("Recorded device reading",
		zap.String("patient_id", entry.PatientID),
		zap.String("day", models.FormatDay(entry.Day)),
	)
	return nil
}

// PatientFromTopic extracts the patient id from hrty/<patientID>/readings.
func PatientFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] != "readings" || parts[1] == "" {
		return "", fmt.Errorf("unexpected topic %q", topic)
	}
	return parts[1], nil
}

// ParseReading decodes a device payload into a partial daily entry.
func ParseReading(topic string, payload []byte, loc *time.Location) (models.DailyEntry, error) {
	patientID, err := PatientFromTopic(topic)
	if err != nil {
		return models.DailyEntry{}, err
	}

	var r DeviceReading
	if err := json.Unmarshal(payload, &r); err != nil {
		return models.DailyEntry{}, fmt.Errorf("failed to parse reading: %w", err)
	}

	measuredAt, err := time.Parse(time.RFC3339, r.MeasuredAt)
	if err != nil {
		return models.DailyEntry{}, fmt.Errorf("invalid measured_at %q: %w", r.MeasuredAt, err)
	}

	entry := models.DailyEntry{
		PatientID: patientID,
		Day:       models.DayOf(measuredAt, loc),
		UpdatedAt: measuredAt,
	}

	switch r.Metric {
	case MetricWeight:
		if r.Value == nil {
			return models.DailyEntry{}, errors.New("weight reading without value")
		}
		unit := models.WeightUnit(strings.ToLower(r.Unit))
		if unit == "lbs" {
			unit = models.WeightUnitPounds
		}
		entry.Weight = &models.Weight{Value: *r.Value, Unit: unit}
	case MetricBloodPressure:
		if r.Systolic == nil || r.Diastolic == nil {
			return models.DailyEntry{}, errors.New("blood pressure reading needs systolic and diastolic")
		}
		entry.Systolic = r.Systolic
		entry.Diastolic = r.Diastolic
	case MetricHeartRate:
		if r.Value == nil {
			return models.DailyEntry{}, errors.New("heart rate reading without value")
		}
		bpm := int(*r.Value + 0.5)
		entry.HeartRate = &bpm
	case MetricOxygenSaturation:
		if r.Value == nil {
			return models.DailyEntry{}, errors.New("oxygen saturation reading without value")
		}
		pct := *r.Value
		entry.OxygenSaturation = &pct
	default:
		return models.DailyEntry{}, fmt.Errorf("unsupported metric %q", r.Metric)
	}
	return entry, nil
}
