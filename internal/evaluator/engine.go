// Package evaluator runs the alert rules over one patient-day and reconciles the
// findings against the alerts already raised that day.
package evaluator

import (
	"fmt"
	"time"

	"hrty-backend/internal/classifier"
	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"
	"hrty-backend/internal/trend"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// Snapshot is everything the rules read for one patient-day.
type Snapshot struct {
	PatientID string
	Day       time.Time
	// At stamps new alerts; zero means now.
	At       time.Time
	Entry    *models.DailyEntry
	Symptoms []models.SymptomObservation
	// WeightHistory holds prior days' weights; samples after Day are ignored.
	WeightHistory []trend.Sample
	// Existing holds the alerts already raised on Day, in any status.
	Existing []models.AlertEvent
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Statuses StatusSummary        `json:"statuses"`
	Weight   *trend.Result        `json:"weight,omitempty"`
	New      []models.AlertEvent  `json:"new_alerts"`
	Updated  []models.AlertUpdate `json:"updated_alerts"`
}

// HasChanges reports whether anything needs to be persisted.
func (o Outcome) HasChanges() bool {
	return len(o.New) > 0 || len(o.Updated) > 0
}

// Engine evaluates snapshots against one threshold table. It holds no mutable state.
type Engine struct {
	set thresholds.Set
}

// NewEngine creates an engine over set.
func NewEngine(set thresholds.Set) *Engine {
	return &Engine{set: set}
}

// Thresholds returns the table the engine evaluates with.
func (e *Engine) Thresholds() thresholds.Set {
	return e.set
}

// finding is a rule that fired, before de-duplication.
type finding struct {
	category models.AlertCategory
	severity models.Status
	message  string
	trigger  *models.TriggerData
}

// evaluation carries the classified inputs shared by every rule.
type evaluation struct {
	snapshot  Snapshot
	set       thresholds.Set
	entry     *models.DailyEntry
	weight    *trend.Result
	heartRate *classifier.Result
	bp        *classifier.BloodPressureResult
	mapValue  float64
	mapResult *classifier.Result
	oxygen    *classifier.Result
	symptoms  []models.SymptomObservation
}

type rule func(ev *evaluation) []finding

// Evaluate classifies the snapshot, runs every rule and returns the alerts to create
// and the active alerts whose message is superseded. Evaluating the same snapshot
// twice, with the first outcome persisted, yields no changes.
func (e *Engine) Evaluate(s Snapshot) (Outcome, error) {
	if s.PatientID == "" {
		return Outcome{}, fmt.Errorf("patient_id is required")
	}
	if s.Day.IsZero() {
		return Outcome{}, fmt.Errorf("day is required")
	}
	s.Day = models.DayOf(s.Day, time.UTC)
	if s.At.IsZero() {
		s.At = time.Now()
	}

	ev := e.classify(s)

	rules := []rule{
		weightRule,
		heartRateRule,
		bloodPressureRule,
		meanArterialPressureRule,
		dizzinessRule,
		oxygenRule,
		severeSymptomRule,
	}
	var findings []finding
	for _, r := range rules {
		findings = append(findings, r(ev)...)
	}

	out := Outcome{
		Statuses: ev.summary(),
		Weight:   ev.weight,
	}
	if err := e.reconcile(s, findings, &out); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (e *Engine) classify(s Snapshot) *evaluation {
	ev := &evaluation{
		snapshot: s,
		set:      e.set,
		entry:    s.Entry,
		symptoms: s.Symptoms,
	}

	if w, ok := e.weightTrend(s); ok {
		ev.weight = &w
	}

	entry := s.Entry
	if entry == nil {
		return ev
	}
	if entry.HeartRate != nil {
		r := classifier.HeartRate(e.set, *entry.HeartRate)
		ev.heartRate = &r
	}
	if entry.HasBloodPressure() {
		bp := classifier.BloodPressure(e.set, *entry.Systolic, *entry.Diastolic)
		ev.bp = &bp
		m, r := classifier.MAP(e.set, *entry.Systolic, *entry.Diastolic)
		ev.mapValue = m
		ev.mapResult = &r
	}
	if entry.OxygenSaturation != nil {
		r := classifier.OxygenSaturation(e.set, *entry.OxygenSaturation)
		ev.oxygen = &r
	}
	return ev
}

// weightTrend evaluates the weight series ending on the snapshot day. No weight
// on that day means no weight evaluation.
func (e *Engine) weightTrend(s Snapshot) (trend.Result, bool) {
	samples := lo.Filter(s.WeightHistory, func(sample trend.Sample, _ int) bool {
		return !models.DayOf(sample.Day, time.UTC).After(s.Day)
	})
	if s.Entry != nil && s.Entry.Weight != nil {
		samples = append(samples, trend.Sample{Day: s.Day, Pounds: s.Entry.Weight.Pounds()})
	}
	res, ok := trend.Evaluate(e.set.Weight(), samples)
	if !ok || !res.Day.Equal(s.Day) {
		return trend.Result{}, false
	}
	return res, true
}

// reconcile applies the per-day de-duplication: a category raises at most one alert
// per day, an active alert has its message superseded, and an acknowledged one
// silences the category until the next day.
func (e *Engine) reconcile(s Snapshot, findings []finding, out *Outcome) error {
	sameDay := lo.Filter(s.Existing, func(a models.AlertEvent, _ int) bool {
		return a.PatientID == s.PatientID && models.DayOf(a.AlertDay, time.UTC).Equal(s.Day)
	})
	existing := lo.KeyBy(sameDay, func(a models.AlertEvent) models.AlertCategory { return a.Category })

	builder := NewAlertEventBuilder(s.PatientID, s.Day)
	seen := mapset.NewThreadUnsafeSet[models.AlertCategory]()

	for _, f := range findings {
		if !seen.Add(f.category) {
			continue
		}

		if prior, ok := existing[f.category]; ok {
			if !prior.IsActive() {
				continue
			}
			if prior.Message == f.message && prior.Severity == f.severity {
				continue
			}
			update, err := builder.BuildAlertUpdate(prior.EventID, f.category, f.severity, f.message, f.trigger)
			if err != nil {
				return err
			}
			out.Updated = append(out.Updated, *update)
			continue
		}

		event, err := builder.BuildAlertEvent(f.category, f.severity, f.message, f.trigger, s.At)
		if err != nil {
			return err
		}
		out.New = append(out.New, *event)
	}
	return nil
}
