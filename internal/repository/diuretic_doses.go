package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hrty-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiureticDoseRepository stores the append-only dose log.
type DiureticDoseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDiureticDoseRepository creates the repository.
func NewDiureticDoseRepository(db *sql.DB, logger *zap.Logger) *DiureticDoseRepository {
	return &DiureticDoseRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a dose. A missing DoseID is generated.
func (r *DiureticDoseRepository) Create(ctx context.Context, dose *models.DiureticDose) error {
	if dose == nil {
		return fmt.Errorf("dose is required")
	}
	if dose.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if dose.DoseID == "" {
		dose.DoseID = uuid.New().String()
	}
	now := time.Now()
	if dose.TakenAt.IsZero() {
		dose.TakenAt = now
	}
	if dose.CreatedAt.IsZero() {
		dose.CreatedAt = now
	}

	query := `
		INSERT INTO diuretic_doses (
			dose_id,
			patient_id,
			entry_date,
			medication,
			dose_mg,
			taken_at,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		dose.DoseID,
		dose.PatientID,
		models.FormatDay(dose.Day),
		dose.Medication,
		dose.DoseMg,
		dose.TakenAt,
		dose.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create diuretic dose: %w", err)
	}
	return nil
}

// ListForDay returns the doses of one day in the order they were taken.
func (r *DiureticDoseRepository) ListForDay(ctx context.Context, patientID string, day time.Time) ([]models.DiureticDose, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT
			dose_id,
			patient_id,
			entry_date,
			medication,
			dose_mg,
			taken_at,
			created_at
		FROM diuretic_doses
		WHERE patient_id = $1
		  AND entry_date = $2
		ORDER BY taken_at ASC`

	rows, err := r.db.QueryContext(ctx, query, patientID, models.FormatDay(day))
	if err != nil {
		return nil, fmt.Errorf("failed to query diuretic doses: %w", err)
	}
	defer rows.Close()

	var out []models.DiureticDose
	for rows.Next() {
		var d models.DiureticDose
		if err := rows.Scan(&d.DoseID, &d.PatientID, &d.Day, &d.Medication, &d.DoseMg, &d.TakenAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diuretic dose: %w", err)
		}
		d.Day = models.DayOf(d.Day, time.UTC)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diuretic doses: %w", err)
	}
	return out, nil
}
