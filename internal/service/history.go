package service

import (
	"context"
	"fmt"
	"io"

	"hrty-backend/internal/importer"
	"hrty-backend/internal/models"
	"hrty-backend/internal/trend"

	"go.uber.org/zap"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 365
)

// WeightTrend returns the daily weights of the last days days, today included.
// days <= 0 selects the default of 30.
func (s *CheckinService) WeightTrend(ctx context.Context, patientID string, days int) (*WeightTrend, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if days <= 0 {
		days = defaultTrendDays
	}
	if days > maxTrendDays {
		return nil, &models.ValidationError{Field: "days", Reason: fmt.Sprintf("must be at most %d", maxTrendDays)}
	}

	to := s.Today()
	from := to.AddDate(0, 0, -(days - 1))
	// one extra lookback window so the first point carries its change
	samples, err := s.entries.WeightHistory(ctx, patientID, from.AddDate(0, 0, -weightLookbackDays), to)
	if err != nil {
		return nil, err
	}

	points := trend.Series(samples, from, to)
	if points == nil {
		points = []trend.Point{}
	}
	return &WeightTrend{
		PatientID: patientID,
		From:      models.FormatDay(from),
		To:        models.FormatDay(to),
		Points:    points,
	}, nil
}

// ImportHistory loads past check-ins from an XLSX workbook. Imported days seed the
// weight trend; they never raise alerts.
func (s *CheckinService) ImportHistory(ctx context.Context, patientID string, r io.Reader) (*ImportResult, error) {
	parsed, err := importer.Parse(r, patientID)
	if err != nil {
		return nil, &models.ValidationError{Field: "file", Reason: err.Error()}
	}

	result := &ImportResult{Total: parsed.Total, Skipped: []SkippedRow{}}
	for _, row := range parsed.Skipped {
		result.Skipped = append(result.Skipped, SkippedRow{Row: row.Row, Reason: row.Reason})
	}
	if len(parsed.Entries) == 0 {
		return result, nil
	}

	now := s.now()
	for i := range parsed.Entries {
		parsed.Entries[i].UpdatedAt = now
	}
	n, err := s.entries.UpsertMany(ctx, parsed.Entries)
	if err != nil {
		return nil, err
	}
	result.Imported = n

	s.invalidate(ctx, patientID)
	s.logger.Info("History imported",
		zap.String("patient_id", patientID),
		zap.Int("imported", n),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
