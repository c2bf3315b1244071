package models

import (
	"encoding/json"
	"time"
)

// AlertCategory is a named class of concerning condition. De-duplication is per
// patient, category and day.
type AlertCategory string

const (
	CategoryWeightGain24h       AlertCategory = "weight_gain_24h"
	CategoryWeightGain7d        AlertCategory = "weight_gain_7d"
	CategoryHeartRateLow        AlertCategory = "heart_rate_low"
	CategoryHeartRateHigh       AlertCategory = "heart_rate_high"
	CategoryLowBloodPressure    AlertCategory = "low_blood_pressure"
	CategoryLowMAP              AlertCategory = "low_map"
	CategoryDizzinessBPCheck    AlertCategory = "dizziness_bp_check"
	CategoryLowOxygenSaturation AlertCategory = "low_oxygen_saturation"
	CategorySevereSymptom       AlertCategory = "severe_symptom"
)

// AllAlertCategories lists every category in rule order.
func AllAlertCategories() []AlertCategory {
	return []AlertCategory{
		CategoryWeightGain24h,
		CategoryWeightGain7d,
		CategoryHeartRateLow,
		CategoryHeartRateHigh,
		CategoryLowBloodPressure,
		CategoryLowMAP,
		CategoryDizzinessBPCheck,
		CategoryLowOxygenSaturation,
		CategorySevereSymptom,
	}
}

// Alert statuses (alert_events.alert_status).
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
)

// AlertEvent is a raised alert (alert_events). The message is written once at creation and only
// superseded while the alert is still active on the same day.
type AlertEvent struct {
	EventID        string          `json:"event_id" db:"event_id"`
	PatientID      string          `json:"patient_id" db:"patient_id"`
	Category       AlertCategory   `json:"category" db:"category"`
	Severity       Status          `json:"severity" db:"severity"`
	Message        string          `json:"message" db:"message"`
	TriggerData    json.RawMessage `json:"trigger_data" db:"trigger_data"` // JSONB
	AlertDay       time.Time       `json:"alert_day" db:"alert_day"`
	AlertStatus    string          `json:"alert_status" db:"alert_status"`
	TriggeredAt    time.Time       `json:"triggered_at" db:"triggered_at"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the alert has not been acknowledged.
func (a AlertEvent) IsActive() bool {
	return a.AlertStatus == AlertStatusActive
}

// AlertUpdate supersedes the message of a still-active same-day alert.
type AlertUpdate struct {
	EventID     string          `json:"event_id"`
	Category    AlertCategory   `json:"category"`
	Severity    Status          `json:"severity"`
	Message     string          `json:"message"`
	TriggerData json.RawMessage `json:"trigger_data"`
}

// TriggerData is the by-value snapshot of what fired an alert (JSONB).
type TriggerData struct {
	Category             AlertCategory    `json:"category"`
	WeightLbs            *float64         `json:"weight_lbs,omitempty"`
	DeltaLbs             *float64         `json:"delta_lbs,omitempty"`
	ReferenceDay         *string          `json:"reference_day,omitempty"`
	Systolic             *int             `json:"systolic,omitempty"`
	Diastolic            *int             `json:"diastolic,omitempty"`
	MeanArterialPressure *float64         `json:"mean_arterial_pressure,omitempty"`
	HeartRate            *int             `json:"heart_rate,omitempty"`
	OxygenSaturation     *float64         `json:"oxygen_saturation,omitempty"`
	Symptoms             []SymptomTrigger `json:"symptoms,omitempty"`
	Threshold            *ThresholdData   `json:"threshold,omitempty"`
}

// SymptomTrigger is one symptom rating copied into TriggerData.
type SymptomTrigger struct {
	Type     SymptomType `json:"type"`
	Severity int         `json:"severity"`
}

// ThresholdData records the bound that was crossed.
type ThresholdData struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}
