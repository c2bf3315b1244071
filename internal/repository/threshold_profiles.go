package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ThresholdProfileRepository stores per-patient threshold overrides as JSONB.
type ThresholdProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewThresholdProfileRepository creates the repository.
func NewThresholdProfileRepository(db *sql.DB, logger *zap.Logger) *ThresholdProfileRepository {
	return &ThresholdProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the stored override, or ErrNotFound.
func (r *ThresholdProfileRepository) Get(ctx context.Context, patientID string) (json.RawMessage, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT thresholds FROM threshold_profiles WHERE patient_id = $1`, patientID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get threshold profile: %w", err)
	}
	return data, nil
}

// Upsert replaces the stored override.
func (r *ThresholdProfileRepository) Upsert(ctx context.Context, patientID string, profile json.RawMessage) error {
	if patientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if !json.Valid(profile) {
		return fmt.Errorf("threshold profile is not valid JSON")
	}

	query := `
		INSERT INTO threshold_profiles (patient_id, thresholds, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (patient_id) DO UPDATE SET
			thresholds = EXCLUDED.thresholds,
			updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, patientID, []byte(profile)); err != nil {
		return fmt.Errorf("failed to upsert threshold profile: %w", err)
	}
	return nil
}
