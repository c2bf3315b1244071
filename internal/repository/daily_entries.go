package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hrty-backend/internal/models"
	"hrty-backend/internal/trend"

	"go.uber.org/zap"
)

// DailyEntryRepository stores one row of vitals per patient and day.
type DailyEntryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDailyEntryRepository creates the repository.
func NewDailyEntryRepository(db *sql.DB, logger *zap.Logger) *DailyEntryRepository {
	return &DailyEntryRepository{
		db:     db,
		logger: logger,
	}
}

const dailyEntryColumns = `
	patient_id,
	entry_date,
	weight_value,
	weight_unit,
	systolic,
	diastolic,
	heart_rate,
	oxygen_saturation,
	updated_at`

// upsertDailyEntrySQL keeps the stored value of every vital the update leaves NULL.
const upsertDailyEntrySQL = `
	INSERT INTO daily_entries (
		patient_id,
		entry_date,
		weight_value,
		weight_unit,
		weight_lbs,
		systolic,
		diastolic,
		heart_rate,
		oxygen_saturation,
		updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (patient_id, entry_date) DO UPDATE SET
		weight_value      = COALESCE(EXCLUDED.weight_value, daily_entries.weight_value),
		weight_unit       = COALESCE(EXCLUDED.weight_unit, daily_entries.weight_unit),
		weight_lbs        = COALESCE(EXCLUDED.weight_lbs, daily_entries.weight_lbs),
		systolic          = COALESCE(EXCLUDED.systolic, daily_entries.systolic),
		diastolic         = COALESCE(EXCLUDED.diastolic, daily_entries.diastolic),
		heart_rate        = COALESCE(EXCLUDED.heart_rate, daily_entries.heart_rate),
		oxygen_saturation = COALESCE(EXCLUDED.oxygen_saturation, daily_entries.oxygen_saturation),
		updated_at        = EXCLUDED.updated_at
	RETURNING` + dailyEntryColumns

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Upsert merges the non-nil vitals of entry into the stored day and returns the merged row.
func (r *DailyEntryRepository) Upsert(ctx context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	return r.upsert(ctx, r.db, entry)
}

func (r *DailyEntryRepository) upsert(ctx context.Context, q rowQuerier, entry *models.DailyEntry) (*models.DailyEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("entry is required")
	}
	if entry.PatientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	var weightValue, weightUnit, weightLbs interface{}
	if entry.Weight != nil {
		unit := entry.Weight.Unit
		if unit == "" {
			unit = models.WeightUnitPounds
		}
		weightValue = entry.Weight.Value
		weightUnit = string(unit)
		weightLbs = entry.Weight.Pounds()
	}
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	row := q.QueryRowContext(ctx, upsertDailyEntrySQL,
		entry.PatientID,
		models.FormatDay(entry.Day),
		weightValue,
		weightUnit,
		weightLbs,
		nullInt(entry.Systolic),
		nullInt(entry.Diastolic),
		nullInt(entry.HeartRate),
		nullFloat(entry.OxygenSaturation),
		updatedAt,
	)
	merged, err := scanDailyEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily entry: %w", err)
	}
	return merged, nil
}

// UpsertMany merges several days in one transaction.
func (r *DailyEntryRepository) UpsertMany(ctx context.Context, entries []models.DailyEntry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range entries {
		if _, err := r.upsert(ctx, tx, &entries[i]); err != nil {
			return 0, fmt.Errorf("day %s: %w", models.FormatDay(entries[i].Day), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit daily entries: %w", err)
	}
	return len(entries), nil
}

// Get returns the entry of one day, or ErrNotFound.
func (r *DailyEntryRepository) Get(ctx context.Context, patientID string, day time.Time) (*models.DailyEntry, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `SELECT` + dailyEntryColumns + `
		FROM daily_entries
		WHERE patient_id = $1
		  AND entry_date = $2`

	entry, err := scanDailyEntry(r.db.QueryRowContext(ctx, query, patientID, models.FormatDay(day)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get daily entry: %w", err)
	}
	return entry, nil
}

// WeightHistory returns the weighed days in [from, to], oldest first, in pounds.
func (r *DailyEntryRepository) WeightHistory(ctx context.Context, patientID string, from, to time.Time) ([]trend.Sample, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `
		SELECT entry_date, weight_lbs
		FROM daily_entries
		WHERE patient_id = $1
		  AND entry_date BETWEEN $2 AND $3
		  AND weight_lbs IS NOT NULL
		ORDER BY entry_date ASC`

	rows, err := r.db.QueryContext(ctx, query, patientID, models.FormatDay(from), models.FormatDay(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query weight history: %w", err)
	}
	defer rows.Close()

	var samples []trend.Sample
	for rows.Next() {
		var s trend.Sample
		if err := rows.Scan(&s.Day, &s.Pounds); err != nil {
			return nil, fmt.Errorf("failed to scan weight sample: %w", err)
		}
		s.Day = models.DayOf(s.Day, time.UTC)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate weight history: %w", err)
	}
	return samples, nil
}

func scanDailyEntry(row rowScanner) (*models.DailyEntry, error) {
	var e models.DailyEntry
	var weightValue sql.NullFloat64
	var weightUnit sql.NullString
	var systolic, diastolic, heartRate sql.NullInt64
	var oxygen sql.NullFloat64

	if err := row.Scan(
		&e.PatientID,
		&e.Day,
		&weightValue,
		&weightUnit,
		&systolic,
		&diastolic,
		&heartRate,
		&oxygen,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Day = models.DayOf(e.Day, time.UTC)
	if weightValue.Valid {
		e.Weight = &models.Weight{Value: weightValue.Float64, Unit: models.WeightUnit(weightUnit.String)}
	}
	e.Systolic = intFrom(systolic)
	e.Diastolic = intFrom(diastolic)
	e.HeartRate = intFrom(heartRate)
	e.OxygenSaturation = floatFrom(oxygen)
	return &e, nil
}
