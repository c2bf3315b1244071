// Package symptom labels symptom severities and picks out the ratings that drive alerts.
package symptom

import (
	"fmt"
	"sort"

	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"

	mapset "github.com/deckarep/golang-set/v2"
)

var labels = [...]string{"None", "Mild", "Moderate", "Significant", "Severe"}

// Description is the display form of one severity.
type Description struct {
	Severity int           `json:"severity"`
	Label    string        `json:"label"`
	Tier     models.Status `json:"tier"`
}

// Describe labels a 1-5 severity. Callers validate first; anything else panics.
func Describe(severity int) Description {
	if err := Validate(severity); err != nil {
		panic(fmt.Sprintf("symptom: %v", err))
	}
	return Description{
		Severity: severity,
		Label:    labels[severity-models.MinSeverity],
		Tier:     tier(severity),
	}
}

// Validate checks the 1-5 domain.
func Validate(severity int) error {
	if severity < models.MinSeverity || severity > models.MaxSeverity {
		return fmt.Errorf("severity %d is outside %d-%d", severity, models.MinSeverity, models.MaxSeverity)
	}
	return nil
}

func tier(severity int) models.Status {
	switch {
	case severity >= 5:
		return models.StatusCritical
	case severity >= 3:
		return models.StatusCaution
	default:
		return models.StatusNormal
	}
}

// IsSevere reports whether severity reaches the severe limit.
func IsSevere(limits thresholds.SymptomLimits, severity int) bool {
	return severity >= limits.Severe
}

// PromptsBPCheck reports whether a dizziness rating is high enough to ask for a BP reading.
func PromptsBPCheck(limits thresholds.SymptomLimits, obs models.SymptomObservation) bool {
	return obs.Type == models.SymptomDizziness && obs.Severity >= limits.DizzinessPrompt
}

// Latest collapses observations to one per type; a later entry for the same type overwrites.
func Latest(observations []models.SymptomObservation) []models.SymptomObservation {
	byType := make(map[models.SymptomType]models.SymptomObservation, len(observations))
	for _, o := range observations {
		byType[o.Type] = o
	}
	out := make([]models.SymptomObservation, 0, len(byType))
	for _, t := range models.AllSymptomTypes() {
		if o, ok := byType[t]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Severe returns the severe observations in display order.
func Severe(limits thresholds.SymptomLimits, observations []models.SymptomObservation) []models.SymptomObservation {
	var out []models.SymptomObservation
	for _, o := range Latest(observations) {
		if IsSevere(limits, o.Severity) {
			out = append(out, o)
		}
	}
	return out
}

// SevereTypes returns the set of symptom types at the severe limit.
func SevereTypes(limits thresholds.SymptomLimits, observations []models.SymptomObservation) mapset.Set[models.SymptomType] {
	set := mapset.NewThreadUnsafeSet[models.SymptomType]()
	for _, o := range Severe(limits, observations) {
		set.Add(o.Type)
	}
	return set
}

// Labelled pairs an observation with its description for display.
type Labelled struct {
	Type        models.SymptomType `json:"type"`
	Name        string             `json:"name"`
	Description
}

// Label describes every observation; observations must be validated.
func Label(observations []models.SymptomObservation) []Labelled {
	latest := Latest(observations)
	out := make([]Labelled, 0, len(latest))
	for _, o := range latest {
		out = append(out, Labelled{Type: o.Type, Name: o.Type.Display(), Description: Describe(o.Severity)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	return out
}
