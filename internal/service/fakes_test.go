package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"hrty-backend/internal/models"
	"hrty-backend/internal/repository"
	"hrty-backend/internal/trend"
)

func dayKey(patientID string, day time.Time) string {
	return patientID + "|" + models.FormatDay(day)
}

type memoryEntries struct {
	mu      sync.Mutex
	entries map[string]*models.DailyEntry
}

func newMemoryEntries() *memoryEntries {
	return &memoryEntries{entries: make(map[string]*models.DailyEntry)}
}

func (m *memoryEntries) Upsert(_ context.Context, entry *models.DailyEntry) (*models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(entry.PatientID, entry.Day)
	stored, ok := m.entries[key]
	if !ok {
		stored = &models.DailyEntry{PatientID: entry.PatientID, Day: entry.Day}
		m.entries[key] = stored
	}
	stored.Merge(*entry)
	out := *stored
	return &out, nil
}

func (m *memoryEntries) UpsertMany(ctx context.Context, entries []models.DailyEntry) (int, error) {
	for i := range entries {
		if _, err := m.Upsert(ctx, &entries[i]); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func (m *memoryEntries) Get(_ context.Context, patientID string, day time.Time) (*models.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[dayKey(patientID, day)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (m *memoryEntries) WeightHistory(_ context.Context, patientID string, from, to time.Time) ([]trend.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []trend.Sample
	for _, e := range m.entries {
		if e.PatientID != patientID || e.Weight == nil || e.Day.Before(from) || e.Day.After(to) {
			continue
		}
		out = append(out, trend.Sample{Day: e.Day, Pounds: e.Weight.Pounds()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

type memorySymptoms struct {
	mu  sync.Mutex
	obs map[string]models.SymptomObservation
}

func newMemorySymptoms() *memorySymptoms {
	return &memorySymptoms{obs: make(map[string]models.SymptomObservation)}
}

func (m *memorySymptoms) Upsert(_ context.Context, observations []models.SymptomObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range observations {
		m.obs[dayKey(o.PatientID, o.Day)+"|"+string(o.Type)] = o
	}
	return nil
}

func (m *memorySymptoms) ListForDay(_ context.Context, patientID string, day time.Time) ([]models.SymptomObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SymptomObservation
	for _, o := range m.obs {
		if o.PatientID == patientID && o.Day.Equal(day) {
			out = append(out, o)
		}
	}
	return out, nil
}

type memoryDoses struct {
	mu    sync.Mutex
	doses []models.DiureticDose
}

func (m *memoryDoses) Create(_ context.Context, dose *models.DiureticDose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doses = append(m.doses, *dose)
	return nil
}

func (m *memoryDoses) ListForDay(_ context.Context, patientID string, day time.Time) ([]models.DiureticDose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DiureticDose
	for _, d := range m.doses {
		if d.PatientID == patientID && d.Day.Equal(day) {
			out = append(out, d)
		}
	}
	return out, nil
}

// memoryAlerts mirrors the unique (patient, category, day) index.
type memoryAlerts struct {
	mu     sync.Mutex
	events []models.AlertEvent
	lists  int
}

func (m *memoryAlerts) Create(_ context.Context, event *models.AlertEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.PatientID == event.PatientID && e.Category == event.Category && e.AlertDay.Equal(event.AlertDay) {
			return false, nil
		}
	}
	m.events = append(m.events, *event)
	return true, nil
}

func (m *memoryAlerts) UpdateMessage(_ context.Context, update *models.AlertUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].EventID == update.EventID && m.events[i].IsActive() {
			m.events[i].Message = update.Message
			m.events[i].Severity = update.Severity
			m.events[i].TriggerData = update.TriggerData
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAlerts) ListForDay(_ context.Context, patientID string, day time.Time) ([]models.AlertEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AlertEvent
	for _, e := range m.events {
		if e.PatientID == patientID && e.AlertDay.Equal(day) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryAlerts) List(_ context.Context, patientID string, filters repository.AlertEventFilters) ([]models.AlertEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []models.AlertEvent
	for _, e := range m.events {
		if e.PatientID != patientID {
			continue
		}
		if filters.AlertStatus != nil && e.AlertStatus != *filters.AlertStatus {
			continue
		}
		out = append(out, e)
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *memoryAlerts) Acknowledge(_ context.Context, patientID, eventID string, at time.Time) (*models.AlertEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		e := &m.events[i]
		if e.EventID == eventID && e.PatientID == patientID {
			e.AlertStatus = models.AlertStatusAcknowledged
			if e.AcknowledgedAt == nil {
				e.AcknowledgedAt = &at
			}
			out := *e
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAlerts) byCategory(category models.AlertCategory) []models.AlertEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AlertEvent
	for _, e := range m.events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]json.RawMessage
	gets     int
	failGet  error
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]json.RawMessage)}
}

func (m *memoryProfiles) Get(_ context.Context, patientID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet != nil {
		return nil, m.failGet
	}
	p, ok := m.profiles[patientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *memoryProfiles) Upsert(_ context.Context, patientID string, profile json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !json.Valid(profile) {
		return fmt.Errorf("threshold profile is not valid JSON")
	}
	m.profiles[patientID] = profile
	return nil
}

// recordingNotifier blocks in Dispatch until release is closed when entered is set.
type recordingNotifier struct {
	mu         sync.Mutex
	dispatched []models.AlertEvent
	entered    chan struct{}
	release    chan struct{}
}

func (n *recordingNotifier) Dispatch(_ context.Context, alerts []models.AlertEvent) {
	if n.entered != nil {
		n.entered <- struct{}{}
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched = append(n.dispatched, alerts...)
}
