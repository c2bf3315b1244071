package evaluator

import (
	"encoding/json"
	"fmt"
	"time"

	"hrty-backend/internal/models"

	"github.com/google/uuid"
)

// AlertEventBuilder builds alert rows for one patient-day.
type AlertEventBuilder struct {
	patientID string
	day       time.Time
}

// NewAlertEventBuilder creates a builder.
func NewAlertEventBuilder(patientID string, day time.Time) *AlertEventBuilder {
	return &AlertEventBuilder{
		patientID: patientID,
		day:       day,
	}
}

// BuildAlertEvent builds a new active alert.
func (b *AlertEventBuilder) BuildAlertEvent(
	category models.AlertCategory,
	severity models.Status,
	message string,
	triggerData *models.TriggerData,
	triggeredAt time.Time,
) (*models.AlertEvent, error) {
	triggerJSON, err := marshalTrigger(triggerData)
	if err != nil {
		return nil, err
	}

	return &models.AlertEvent{
		EventID:     uuid.New().String(),
		PatientID:   b.patientID,
		Category:    category,
		Severity:    severity,
		Message:     message,
		TriggerData: triggerJSON,
		AlertDay:    b.day,
		AlertStatus: models.AlertStatusActive,
		TriggeredAt: triggeredAt,
		CreatedAt:   triggeredAt,
		UpdatedAt:   triggeredAt,
	}, nil
}

// BuildAlertUpdate builds the supersede of an active alert's message.
func (b *AlertEventBuilder) BuildAlertUpdate(
	eventID string,
	category models.AlertCategory,
	severity models.Status,
	message string,
	triggerData *models.TriggerData,
) (*models.AlertUpdate, error) {
	triggerJSON, err := marshalTrigger(triggerData)
	if err != nil {
		return nil, err
	}

	return &models.AlertUpdate{
		EventID:     eventID,
		Category:    category,
		Severity:    severity,
		Message:     message,
		TriggerData: triggerJSON,
	}, nil
}

func marshalTrigger(triggerData *models.TriggerData) (json.RawMessage, error) {
	if triggerData == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(triggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}
	return data, nil
}
