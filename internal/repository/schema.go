package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// schemaStatements is applied in order by Migrate. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS daily_entries (
		patient_id        TEXT        NOT NULL,
		entry_date        DATE        NOT NULL,
		weight_value      NUMERIC(6,2),
		weight_unit       TEXT,
		weight_lbs        NUMERIC(6,2),
		systolic          INTEGER,
		diastolic         INTEGER,
		heart_rate        INTEGER,
		oxygen_saturation NUMERIC(5,2),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (patient_id, entry_date)
	)`,
	`CREATE TABLE IF NOT EXISTS symptom_observations (
		patient_id   TEXT        NOT NULL,
		entry_date   DATE        NOT NULL,
		symptom_type TEXT        NOT NULL,
		severity     SMALLINT    NOT NULL CHECK (severity BETWEEN 1 AND 5),
		recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (patient_id, entry_date, symptom_type)
	)`,
	`CREATE TABLE IF NOT EXISTS diuretic_doses (
		dose_id    UUID         PRIMARY KEY,
		patient_id TEXT         NOT NULL,
		entry_date DATE         NOT NULL,
		medication TEXT         NOT NULL,
		dose_mg    NUMERIC(7,2) NOT NULL,
		taken_at   TIMESTAMPTZ  NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diuretic_doses_patient_day ON diuretic_doses (patient_id, entry_date)`,
	`CREATE TABLE IF NOT EXISTS alert_events (
		event_id        UUID        PRIMARY KEY,
		patient_id      TEXT        NOT NULL,
		category        TEXT        NOT NULL,
		severity        TEXT        NOT NULL,
		message         TEXT        NOT NULL,
		trigger_data    JSONB       NOT NULL DEFAULT '{}',
		alert_day       DATE        NOT NULL,
		alert_status    TEXT        NOT NULL DEFAULT 'active',
		triggered_at    TIMESTAMPTZ NOT NULL,
		acknowledged_at TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT uq_alert_events_patient_category_day UNIQUE (patient_id, category, alert_day)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alert_events_patient_status ON alert_events (patient_id, alert_status)`,
	`CREATE TABLE IF NOT EXISTS threshold_profiles (
		patient_id TEXT        PRIMARY KEY,
		thresholds JSONB       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables the service needs.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", firstLine(stmt), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	logger.Info("Schema migrated", zap.Int("statements", len(schemaStatements)))
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '('); i > 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}
