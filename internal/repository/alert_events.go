package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrty-backend/internal/models"

	"go.uber.org/zap"
)

// AlertEventRepository stores raised alerts. The unique (patient_id, category, alert_day)
// constraint backs the one-alert-per-category-per-day rule.
type AlertEventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlertEventRepository creates the repository.
func NewAlertEventRepository(db *sql.DB, logger *zap.Logger) *AlertEventRepository {
	return &AlertEventRepository{
		db:     db,
		logger: logger,
	}
}

// AlertEventFilters narrows List.
type AlertEventFilters struct {
	AlertStatus *string
	Since       *time.Time // alert_day >= Since
	Limit       int
}

const alertEventColumns = `
	event_id,
	patient_id,
	category,
	severity,
	message,
	trigger_data,
	alert_day,
	alert_status,
	triggered_at,
	acknowledged_at,
	created_at,
	updated_at`

// Create inserts event. It reports false, without error, when the category already
// has an alert for that day.
func (r *AlertEventRepository) Create(ctx context.Context, event *models.AlertEvent) (bool, error) {
	if event == nil {
		return false, fmt.Errorf("event is required")
	}
	if event.PatientID == "" {
		return false, fmt.Errorf("patient_id is required")
	}

	triggerData := []byte(event.TriggerData)
	if len(triggerData) == 0 {
		triggerData = []byte("{}")
	}

	query := `
		INSERT INTO alert_events (
			event_id,
			patient_id,
			category,
			severity,
			message,
			trigger_data,
			alert_day,
			alert_status,
			triggered_at,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (patient_id, category, alert_day) DO NOTHING
		RETURNING event_id`

	var eventID string
	err := r.db.QueryRowContext(ctx, query,
		event.EventID,
		event.PatientID,
		string(event.Category),
		event.Severity,
		event.Message,
		triggerData,
		models.FormatDay(event.AlertDay),
		event.AlertStatus,
		event.TriggeredAt,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("Alert already exists for day, skipped",
				zap.String("patient_id", event.PatientID),
				zap.String("category", string(event.Category)),
				zap.String("alert_day", models.FormatDay(event.AlertDay)),
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to create alert event: %w", err)
	}
	return true, nil
}

// UpdateMessage supersedes the message of an alert that is still active. It reports
// false when the alert was acknowledged in the meantime.
func (r *AlertEventRepository) UpdateMessage(ctx context.Context, update *models.AlertUpdate) (bool, error) {
	if update == nil || update.EventID == "" {
		return false, fmt.Errorf("event_id is required")
	}

	query := `
		UPDATE alert_events
		SET message      = $2,
		    severity     = $3,
		    trigger_data = $4,
		    updated_at   = now()
		WHERE event_id = $1
		  AND alert_status = 'active'`

	res, err := r.db.ExecContext(ctx, query, update.EventID, update.Message, update.Severity, []byte(update.TriggerData))
	if err != nil {
		return false, fmt.Errorf("failed to update alert message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Get returns one alert of the patient, or ErrNotFound.
func (r *AlertEventRepository) Get(ctx context.Context, patientID, eventID string) (*models.AlertEvent, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}

	query := `SELECT` + alertEventColumns + `
		FROM alert_events
		WHERE event_id = $1
		  AND patient_id = $2`

	event, err := scanAlertEvent(r.db.QueryRowContext(ctx, query, eventID, patientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get alert event: %w", err)
	}
	return event, nil
}

// ListForDay returns every alert of one day, in any status.
func (r *AlertEventRepository) ListForDay(ctx context.Context, patientID string, day time.Time) ([]models.AlertEvent, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	query := `SELECT` + alertEventColumns + `
		FROM alert_events
		WHERE patient_id = $1
		  AND alert_day = $2
		ORDER BY triggered_at ASC`

	return r.query(ctx, query, patientID, models.FormatDay(day))
}

// List returns the patient's alerts, newest first.
func (r *AlertEventRepository) List(ctx context.Context, patientID string, filters AlertEventFilters) ([]models.AlertEvent, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}

	where := []string{"patient_id = $1"}
	args := []interface{}{patientID}
	if filters.AlertStatus != nil {
		args = append(args, *filters.AlertStatus)
		where = append(where, fmt.Sprintf("alert_status = $%d", len(args)))
	}
	if filters.Since != nil {
		args = append(args, models.FormatDay(*filters.Since))
		where = append(where, fmt.Sprintf("alert_day >= $%d", len(args)))
	}

	query := `SELECT` + alertEventColumns + `
		FROM alert_events
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY triggered_at DESC`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.query(ctx, query, args...)
}

// Acknowledge marks an alert acknowledged. Acknowledging twice keeps the first timestamp.
func (r *AlertEventRepository) Acknowledge(ctx context.Context, patientID, eventID string, at time.Time) (*models.AlertEvent, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if eventID == "" {
		return nil, fmt.Errorf("event_id is required")
	}

	query := `
		UPDATE alert_events
		SET alert_status    = 'acknowledged',
		    acknowledged_at = COALESCE(acknowledged_at, $3),
		    updated_at      = now()
		WHERE event_id = $1
		  AND patient_id = $2
		RETURNING` + alertEventColumns

	event, err := scanAlertEvent(r.db.QueryRowContext(ctx, query, eventID, patientID, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to acknowledge alert event: %w", err)
	}
	return event, nil
}

func (r *AlertEventRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.AlertEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert events: %w", err)
	}
	defer rows.Close()

	var out []models.AlertEvent
	for rows.Next() {
		event, err := scanAlertEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert event: %w", err)
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert events: %w", err)
	}
	return out, nil
}

func scanAlertEvent(row rowScanner) (*models.AlertEvent, error) {
	var event models.AlertEvent
	var triggerData []byte
	var acknowledgedAt sql.NullTime

	if err := row.Scan(
		&event.EventID,
		&event.PatientID,
		&event.Category,
		&event.Severity,
		&event.Message,
		&triggerData,
		&event.AlertDay,
		&event.AlertStatus,
		&event.TriggeredAt,
		&acknowledgedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}

	event.AlertDay = models.DayOf(event.AlertDay, time.UTC)
	if acknowledgedAt.Valid {
		event.AcknowledgedAt = &acknowledgedAt.Time
	}
	if len(triggerData) > 0 {
		event.TriggerData = triggerData
	} else {
		event.TriggerData = json.RawMessage("{}")
	}
	return &event, nil
}
