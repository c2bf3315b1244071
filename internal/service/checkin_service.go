package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrty-backend/internal/consumer"
	"hrty-backend/internal/evaluator"
	"hrty-backend/internal/models"
	"hrty-backend/internal/repository"
	"hrty-backend/internal/symptom"
	"hrty-backend/internal/thresholds"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// weightLookbackDays bounds how far back the closest prior weighed day is searched.
const weightLookbackDays = 90

// CheckinService records check-ins and evaluates them. Every read, evaluate and
// persist sequence of one patient-day runs under the evaluation lock.
type CheckinService struct {
	entries    DailyEntryStore
	symptoms   SymptomStore
	doses      DiureticDoseStore
	alerts     AlertEventStore
	thresholds *ThresholdProvider
	lock       Locker
	cache      Cache
	notifier   Notifier
	location   *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewCheckinService creates the service. cache and notifier may be nil.
func NewCheckinService(
	entries DailyEntryStore,
	symptoms SymptomStore,
	doses DiureticDoseStore,
	alerts AlertEventStore,
	thresholdProvider *ThresholdProvider,
	lock Locker,
	cache Cache,
	notifier Notifier,
	location *time.Location,
	logger *zap.Logger,
) *CheckinService {
	if location == nil {
		location = time.UTC
	}
	return &CheckinService{
		entries:    entries,
		symptoms:   symptoms,
		doses:      doses,
		alerts:     alerts,
		thresholds: thresholdProvider,
		lock:       lock,
		cache:      cache,
		notifier:   notifier,
		location:   location,
		logger:     logger,
		now:        time.Now,
	}
}

// Today returns the current calendar day in the service timezone.
func (s *CheckinService) Today() time.Time {
	return models.DayOf(s.now(), s.location)
}

func (s *CheckinService) dayOrToday(day time.Time) time.Time {
	if day.IsZero() {
		return s.Today()
	}
	return models.DayOf(day, time.UTC)
}

// RecordVitals merges entry into the stored day and evaluates the day. Absent vitals
// leave the stored values untouched.
func (s *CheckinService) RecordVitals(ctx context.Context, entry models.DailyEntry) (*EvaluationResult, error) {
	entry.Day = s.dayOrToday(entry.Day)
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if entry.IsEmpty() {
		return nil, &models.ValidationError{Field: "vitals", Reason: "at least one vital is required"}
	}
	if entry.Weight != nil && entry.Weight.Unit == "" {
		entry.Weight.Unit = models.WeightUnitPounds
	}
	entry.UpdatedAt = s.now()

	var result *EvaluationResult
	err := s.withLock(ctx, entry.PatientID, entry.Day, func(ctx context.Context) error {
		if _, err := s.entries.Upsert(ctx, &entry); err != nil {
			return err
		}
		var err error
		result, err = s.evaluateLocked(ctx, entry.PatientID, entry.Day)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result)
	return result, nil
}

// RecordReading records one device reading. It satisfies consumer.ReadingRecorder.
func (s *CheckinService) RecordReading(ctx context.Context, entry models.DailyEntry) error {
	_, err := s.RecordVitals(ctx, entry)
	return err
}

// RecordSymptoms stores the ratings of one day and evaluates the day. A later rating
// of the same symptom replaces the earlier one.
func (s *CheckinService) RecordSymptoms(ctx context.Context, patientID string, day time.Time, observations []models.SymptomObservation) (*EvaluationResult, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(observations) == 0 {
		return nil, &models.ValidationError{Field: "symptoms", Reason: "at least one symptom is required"}
	}
	day = s.dayOrToday(day)
	now := s.now()

	obs := make([]models.SymptomObservation, len(observations))
	for i, o := range observations {
		o.PatientID = patientID
		o.Day = day
		if o.RecordedAt.IsZero() {
			o.RecordedAt = now
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}
		obs[i] = o
	}

	var result *EvaluationResult
	err := s.withLock(ctx, patientID, day, func(ctx context.Context) error {
		if err := s.symptoms.Upsert(ctx, obs); err != nil {
			return err
		}
		var err error
		result, err = s.evaluateLocked(ctx, patientID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result)
	return result, nil
}

// RecordDiureticDose appends a dose. Doses never feed alerts, so no evaluation runs.
func (s *CheckinService) RecordDiureticDose(ctx context.Context, dose models.DiureticDose) (*models.DiureticDose, error) {
	if dose.TakenAt.IsZero() {
		dose.TakenAt = s.now()
	}
	if dose.Day.IsZero() {
		dose.Day = models.DayOf(dose.TakenAt, s.location)
	} else {
		dose.Day = models.DayOf(dose.Day, time.UTC)
	}
	if err := dose.Validate(); err != nil {
		return nil, err
	}
	if dose.DoseID == "" {
		dose.DoseID = uuid.New().String()
	}
	if err := s.doses.Create(ctx, &dose); err != nil {
		return nil, err
	}
	s.invalidate(ctx, dose.PatientID)
	return &dose, nil
}

// Evaluate re-runs the rules over a stored day. It is idempotent.
func (s *CheckinService) Evaluate(ctx context.Context, patientID string, day time.Time) (*EvaluationResult, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	day = s.dayOrToday(day)

	var result *EvaluationResult
	err := s.withLock(ctx, patientID, day, func(ctx context.Context) error {
		var err error
		result, err = s.evaluateLocked(ctx, patientID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result)
	return result, nil
}

func (s *CheckinService) withLock(ctx context.Context, patientID string, day time.Time, fn func(ctx context.Context) error) error {
	if s.lock == nil {
		return fn(ctx)
	}
	err := s.lock.WithLock(ctx, patientID, day, fn)
	if errors.Is(err, consumer.ErrLockNotAcquired) {
		s.logger.Warn("Evaluation lock busy",
			zap.String("patient_id", patientID),
			zap.String("day", models.FormatDay(day)),
		)
		return fmt.Errorf("%w: %v", ErrEvaluationBusy, err)
	}
	return err
}

// snapshot reads everything the engine needs for one patient-day.
func (s *CheckinService) snapshot(ctx context.Context, patientID string, day time.Time) (evaluator.Snapshot, error) {
	snap := evaluator.Snapshot{PatientID: patientID, Day: day, At: s.now()}

	entry, err := s.entries.Get(ctx, patientID, day)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return snap, err
	}
	snap.Entry = entry

	if snap.Symptoms, err = s.symptoms.ListForDay(ctx, patientID, day); err != nil {
		return snap, err
	}
	// the day itself comes from Entry
	from := day.AddDate(0, 0, -weightLookbackDays)
	if snap.WeightHistory, err = s.entries.WeightHistory(ctx, patientID, from, day.AddDate(0, 0, -1)); err != nil {
		return snap, err
	}
	if snap.Existing, err = s.alerts.ListForDay(ctx, patientID, day); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *CheckinService) engine(ctx context.Context, patientID string) (*evaluator.Engine, error) {
	set, err := s.thresholds.ForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return evaluator.NewEngine(set), nil
}

// evaluateLocked must run under the patient-day lock. New alerts are returned
// undelivered; callers dispatch them once the lock is released.
func (s *CheckinService) evaluateLocked(ctx context.Context, patientID string, day time.Time) (*EvaluationResult, error) {
	snap, err := s.snapshot(ctx, patientID, day)
	if err != nil {
		return nil, err
	}
	engine, err := s.engine(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out, err := engine.Evaluate(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate: %w", err)
	}

	result := &EvaluationResult{
		PatientID:     patientID,
		Date:          models.FormatDay(day),
		Statuses:      out.Statuses,
		Weight:        out.Weight,
		NewAlerts:     []models.AlertEvent{},
		UpdatedAlerts: []models.AlertUpdate{},
	}

	for i := range out.New {
		event := out.New[i]
		created, err := s.alerts.Create(ctx, &event)
		if err != nil {
			return nil, err
		}
		if created {
			result.NewAlerts = append(result.NewAlerts, event)
		}
	}
	for i := range out.Updated {
		update := out.Updated[i]
		updated, err := s.alerts.UpdateMessage(ctx, &update)
		if err != nil {
			return nil, err
		}
		if updated {
			result.UpdatedAlerts = append(result.UpdatedAlerts, update)
		}
	}

	if len(result.NewAlerts) > 0 || len(result.UpdatedAlerts) > 0 {
		s.logger.Info("Alerts raised",
			zap.String("patient_id", patientID),
			zap.String("day", result.Date),
			zap.Int("new", len(result.NewAlerts)),
			zap.Int("updated", len(result.UpdatedAlerts)),
		)
	}
	s.invalidate(ctx, patientID)
	return result, nil
}

// dispatch delivers new alerts. It runs after the lock is released so a slow webhook
// never holds up other writes of the patient-day.
func (s *CheckinService) dispatch(ctx context.Context, result *EvaluationResult) {
	if s.notifier != nil && len(result.NewAlerts) > 0 {
		s.notifier.Dispatch(ctx, result.NewAlerts)
	}
}

// Acknowledge marks an alert acknowledged. It silences its category for the rest of
// the alert's day.
func (s *CheckinService) Acknowledge(ctx context.Context, patientID, eventID string) (*models.AlertEvent, error) {
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, &models.ValidationError{Field: "event_id", Reason: "must be a UUID"}
	}
	event, err := s.alerts.Acknowledge(ctx, patientID, eventID, s.now())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, patientID)
	return event, nil
}

// ListAlerts returns the patient's active alerts, or every alert when all is set.
// Active alerts are served from the cache when possible.
func (s *CheckinService) ListAlerts(ctx context.Context, patientID string, all bool, limit int) ([]models.AlertEvent, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if all {
		return s.alerts.List(ctx, patientID, repository.AlertEventFilters{Limit: limit})
	}

	if s.cache != nil {
		cached, found, err := s.cache.GetActiveAlerts(ctx, patientID)
		if err != nil {
			s.logger.Warn("Failed to read alert cache", zap.String("patient_id", patientID), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	status := models.AlertStatusActive
	alerts, err := s.alerts.List(ctx, patientID, repository.AlertEventFilters{AlertStatus: &status})
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}
	if s.cache != nil {
		if err := s.cache.SetActiveAlerts(ctx, patientID, alerts); err != nil {
			s.logger.Warn("Failed to update alert cache", zap.String("patient_id", patientID), zap.Error(err))
		}
	}
	return alerts, nil
}

// Summary returns the read model of one day. Statuses are recomputed without persisting.
func (s *CheckinService) Summary(ctx context.Context, patientID string, day time.Time) (*DaySummary, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	day = s.dayOrToday(day)

	if s.cache != nil {
		var cached DaySummary
		found, err := s.cache.GetSummary(ctx, patientID, day, &cached)
		if err != nil {
			s.logger.Warn("Failed to read summary cache", zap.String("patient_id", patientID), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	snap, err := s.snapshot(ctx, patientID, day)
	if err != nil {
		return nil, err
	}
	engine, err := s.engine(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out, err := engine.Evaluate(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate: %w", err)
	}
	doses, err := s.doses.ListForDay(ctx, patientID, day)
	if err != nil {
		return nil, err
	}

	summary := &DaySummary{
		PatientID: patientID,
		Date:      models.FormatDay(day),
		Entry:     snap.Entry,
		Statuses:  out.Statuses,
		Weight:    out.Weight,
		Symptoms:  symptom.Label(snap.Symptoms),
		Doses:     doses,
		Alerts:    snap.Existing,
	}
	if summary.Doses == nil {
		summary.Doses = []models.DiureticDose{}
	}
	if summary.Alerts == nil {
		summary.Alerts = []models.AlertEvent{}
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, patientID, day, summary); err != nil {
			s.logger.Warn("Failed to update summary cache", zap.String("patient_id", patientID), zap.Error(err))
		}
	}
	return summary, nil
}

// Thresholds returns the table the patient is evaluated with.
func (s *CheckinService) Thresholds(ctx context.Context, patientID string) (thresholds.Set, error) {
	if patientID == "" {
		return thresholds.Set{}, fmt.Errorf("patient_id is required")
	}
	return s.thresholds.ForPatient(ctx, patientID)
}

// SetThresholds stores a clinician override for the patient. It takes effect from the
// next evaluation; alerts already raised are left as they are.
func (s *CheckinService) SetThresholds(ctx context.Context, patientID string, profile json.RawMessage) (thresholds.Set, error) {
	set, err := s.thresholds.SetProfile(ctx, patientID, profile)
	if err != nil {
		return thresholds.Set{}, err
	}
	s.invalidate(ctx, patientID)
	return set, nil
}

// invalidate drops every cached read model of the patient. Summaries of later days
// depend on earlier weights, so a write to any day can change them.
func (s *CheckinService) invalidate(ctx context.Context, patientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, patientID); err != nil {
		s.logger.Warn("Failed to invalidate cache",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
	}
}
