package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hrty-backend/internal/models"

	"go.uber.org/zap"
)

// SymptomRepository stores one rating per patient, day and symptom type.
type SymptomRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSymptomRepository creates the repository.
func NewSymptomRepository(db *sql.DB, logger *zap.Logger) *SymptomRepository {
	return &SymptomRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert writes the ratings of one day; a later rating for the same type overwrites.
func (r *SymptomRepository) Upsert(ctx context.Context, observations []models.SymptomObservation) error {
	if len(observations) == 0 {
		return nil
	}

	query := `
		INSERT INTO symptom_observations (
			patient_id,
			entry_date,
			symptom_type,
			severity,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id, entry_date, symptom_type) DO UPDATE SET
			severity    = EXCLUDED.severity,
			recorded_at = EXCLUDED.recorded_at`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, o := range observations {
		if o.PatientID == "" {
			return fmt.Errorf("patient_id is required")
		}
		recordedAt := o.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now()
		}
		if _, err := tx.ExecContext(ctx, query,
			o.PatientID,
			models.FormatDay(o.Day),
			string(o.Type),
			o.Severity,
			recordedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert symptom %s: %w", o.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit symptoms: %w", err)
	}
	return nil
}

// ListForDay returns the ratings of one day.
func (r *SymptomRepository) ListForDay(ctx context.Context, patientID string, day time.Time) ([]models.SymptomObservation, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT
			patient_id,
			entry_date,
			symptom_type,
			severity,
			recorded_at
		FROM symptom_observations
		WHERE patient_id = $1
		  AND entry_date = $2
		ORDER BY symptom_type`

	rows, err := r.db.QueryContext(ctx, query, patientID, models.FormatDay(day))
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	defer rows.Close()

	var out []models.SymptomObservation
	for rows.Next() {
		var o models.SymptomObservation
		if err := rows.Scan(&o.PatientID, &o.Day, &o.Type, &o.Severity, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan symptom: %w", err)
		}
		o.Day = models.DayOf(o.Day, time.UTC)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symptoms: %w", err)
	}
	return out, nil
}
