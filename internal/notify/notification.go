// Package notify fans newly raised alerts out to the alert stream and the care-team webhook.
package notify

import (
	"encoding/json"
	"time"

	"hrty-backend/internal/models"
)

// AlertNotification is the outbound form of a new alert.
type AlertNotification struct {
	EventID     string               `json:"event_id"`
	PatientID   string               `json:"patient_id"`
	Category    models.AlertCategory `json:"category"`
	Severity    models.Status        `json:"severity"`
	Message     string               `json:"message"`
	AlertDay    string               `json:"alert_day"`
	TriggeredAt time.Time            `json:"triggered_at"`
	TriggerData json.RawMessage      `json:"trigger_data,omitempty"`
}

// NewAlertNotification copies the outbound fields of event.
func NewAlertNotification(event models.AlertEvent) AlertNotification {
	return AlertNotification{
		EventID:     event.EventID,
		PatientID:   event.PatientID,
		Category:    event.Category,
		Severity:    event.Severity,
		Message:     event.Message,
		AlertDay:    models.FormatDay(event.AlertDay),
		TriggeredAt: event.TriggeredAt,
		TriggerData: event.TriggerData,
	}
}
