package models

import "time"

// SymptomType identifies a tracked heart-failure symptom.
type SymptomType string

const (
	SymptomShortnessOfBreath SymptomType = "shortness_of_breath"
	SymptomOrthopnea         SymptomType = "orthopnea"
	SymptomSwelling          SymptomType = "swelling"
	SymptomFatigue           SymptomType = "fatigue"
	SymptomDizziness         SymptomType = "dizziness"
	SymptomChestDiscomfort   SymptomType = "chest_discomfort"
	SymptomCough             SymptomType = "cough"
)

// Severity bounds shared by every symptom. 1 is "none", 5 is "severe".
const (
	MinSeverity = 1
	MaxSeverity = 5
)

var symptomDisplay = map[SymptomType]string{
	SymptomShortnessOfBreath: "Shortness of breath",
	SymptomOrthopnea:         "Trouble breathing lying down",
	SymptomSwelling:          "Swelling",
	SymptomFatigue:           "Fatigue",
	SymptomDizziness:         "Dizziness",
	SymptomChestDiscomfort:   "Chest discomfort",
	SymptomCough:             "Persistent cough",
}

// AllSymptomTypes lists the tracked symptoms in display order.
func AllSymptomTypes() []SymptomType {
	return []SymptomType{
		SymptomShortnessOfBreath,
		SymptomOrthopnea,
		SymptomSwelling,
		SymptomFatigue,
		SymptomDizziness,
		SymptomChestDiscomfort,
		SymptomCough,
	}
}

// Valid reports whether t is a tracked symptom.
func (t SymptomType) Valid() bool {
	_, ok := symptomDisplay[t]
	return ok
}

// Display returns the human-readable name.
func (t SymptomType) Display() string {
	if name, ok := symptomDisplay[t]; ok {
		return name
	}
	return string(t)
}

// SymptomObservation is one symptom rating for one day (symptom_observations).
// A later write for the same type and day overwrites the earlier one.
type SymptomObservation struct {
	PatientID  string      `json:"patient_id" db:"patient_id"`
	Day        time.Time   `json:"day" db:"entry_date"`
	Type       SymptomType `json:"type" db:"symptom_type"`
	Severity   int         `json:"severity" db:"severity"`
	RecordedAt time.Time   `json:"recorded_at" db:"recorded_at"`
}

// Validate checks the type and the 1-5 severity domain.
func (o SymptomObservation) Validate() error {
	if o.PatientID == "" {
		return invalid("patient_id", "is required")
	}
	if !o.Type.Valid() {
		return invalid("symptom_type", "unknown symptom %q", o.Type)
	}
	if o.Severity < MinSeverity || o.Severity > MaxSeverity {
		return invalid("severity", "%d is outside %d-%d", o.Severity, MinSeverity, MaxSeverity)
	}
	return nil
}
