// Package service orchestrates check-in persistence, the evaluation lock and the
// alert rule engine.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"hrty-backend/internal/evaluator"
	"hrty-backend/internal/models"
	"hrty-backend/internal/repository"
	"hrty-backend/internal/symptom"
	"hrty-backend/internal/trend"
)

// ErrEvaluationBusy is returned when another evaluation of the same patient-day holds
// the lock for longer than the wait timeout.
var ErrEvaluationBusy = errors.New("evaluation in progress, retry later")

// DailyEntryStore persists daily vitals.
type DailyEntryStore interface {
	Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error)
	UpsertMany(ctx context.Context, entries []models.DailyEntry) (int, error)
	Get(ctx context.Context, patientID string, day time.Time) (*models.DailyEntry, error)
	WeightHistory(ctx context.Context, patientID string, from, to time.Time) ([]trend.Sample, error)
}

// SymptomStore persists symptom ratings.
type SymptomStore interface {
	Upsert(ctx context.Context, observations []models.SymptomObservation) error
	ListForDay(ctx context.Context, patientID string, day time.Time) ([]models.SymptomObservation, error)
}

// DiureticDoseStore persists doses.
type DiureticDoseStore interface {
	Create(ctx context.Context, dose *models.DiureticDose) error
	ListForDay(ctx context.Context, patientID string, day time.Time) ([]models.DiureticDose, error)
}

// AlertEventStore persists alert events.
type AlertEventStore interface {
	Create(ctx context.Context, event *models.AlertEvent) (bool, error)
	UpdateMessage(ctx context.Context, update *models.AlertUpdate) (bool, error)
	ListForDay(ctx context.Context, patientID string, day time.Time) ([]models.AlertEvent, error)
	List(ctx context.Context, patientID string, filters repository.AlertEventFilters) ([]models.AlertEvent, error)
	Acknowledge(ctx context.Context, patientID, eventID string, at time.Time) (*models.AlertEvent, error)
}

// ThresholdProfileStore persists per-patient threshold overrides.
type ThresholdProfileStore interface {
	Get(ctx context.Context, patientID string) (json.RawMessage, error)
	Upsert(ctx context.Context, patientID string, profile json.RawMessage) error
}

// Locker serializes evaluations of one patient-day.
type Locker interface {
	WithLock(ctx context.Context, patientID string, day time.Time, fn func(ctx context.Context) error) error
}

// Cache holds rebuildable read models.
type Cache interface {
	SetActiveAlerts(ctx context.Context, patientID string, alerts []models.AlertEvent) error
	GetActiveAlerts(ctx context.Context, patientID string) ([]models.AlertEvent, bool, error)
	SetSummary(ctx context.Context, patientID string, day time.Time, summary interface{}) error
	GetSummary(ctx context.Context, patientID string, day time.Time, dest interface{}) (bool, error)
	Invalidate(ctx context.Context, patientID string) error
}

// Notifier delivers newly created alerts.
type Notifier interface {
	Dispatch(ctx context.Context, alerts []models.AlertEvent)
}

// EvaluationResult is returned by every write that triggers an evaluation.
type EvaluationResult struct {
	PatientID     string                  `json:"patient_id"`
	Date          string                  `json:"date"`
	Statuses      evaluator.StatusSummary `json:"statuses"`
	Weight        *trend.Result           `json:"weight,omitempty"`
	NewAlerts     []models.AlertEvent     `json:"new_alerts"`
	UpdatedAlerts []models.AlertUpdate    `json:"updated_alerts"`
}

// DaySummary is the read model of one patient-day.
type DaySummary struct {
	PatientID string                  `json:"patient_id"`
	Date      string                  `json:"date"`
	Entry     *models.DailyEntry      `json:"entry,omitempty"`
	Statuses  evaluator.StatusSummary `json:"statuses"`
	Weight    *trend.Result           `json:"weight,omitempty"`
	Symptoms  []symptom.Labelled      `json:"symptoms"`
	Doses     []models.DiureticDose   `json:"diuretic_doses"`
	Alerts    []models.AlertEvent     `json:"alerts"`
}

// WeightTrend is the display series of the last N days.
type WeightTrend struct {
	PatientID string       `json:"patient_id"`
	From      string       `json:"from"`
	To        string       `json:"to"`
	Points    []trend.Point `json:"points"`
}

// ImportResult reports a history import.
type ImportResult struct {
	Total    int          `json:"total"`
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
}

// SkippedRow is one rejected import row.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
