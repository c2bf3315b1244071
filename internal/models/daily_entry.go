package models

import (
	"math"
	"time"
)

// WeightUnit is the unit a weight was entered in.
type WeightUnit string

const (
	WeightUnitPounds    WeightUnit = "lb"
	WeightUnitKilograms WeightUnit = "kg"
)

const poundsPerKilogram = 2.20462262

// Weight is a scale reading in the unit the patient entered.
type Weight struct {
	Value float64    `json:"value"`
	Unit  WeightUnit `json:"unit"`
}

// Pounds returns the weight in pounds rounded to 0.01 lb, the precision weight_lbs
// is stored with, so today's weight and the stored history compare on equal terms.
// An empty unit is treated as pounds.
func (w Weight) Pounds() float64 {
	lb := w.Value
	if w.Unit == WeightUnitKilograms {
		lb = w.Value * poundsPerKilogram
	}
	return math.Round(lb*100) / 100
}

// DailyEntry is one patient's check-in for one calendar day (daily_entries).
// Vitals are edited in place; a nil field means no reading yet for that day.
type DailyEntry struct {
	PatientID        string    `json:"patient_id" db:"patient_id"`
	Day              time.Time `json:"day" db:"entry_date"`
	Weight           *Weight   `json:"weight,omitempty" db:"weight"`
	Systolic         *int      `json:"systolic,omitempty" db:"systolic"`
	Diastolic        *int      `json:"diastolic,omitempty" db:"diastolic"`
	HeartRate        *int      `json:"heart_rate,omitempty" db:"heart_rate"`
	OxygenSaturation *float64  `json:"oxygen_saturation,omitempty" db:"oxygen_saturation"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// HasBloodPressure reports whether both halves of the pair are present.
func (e *DailyEntry) HasBloodPressure() bool {
	return e != nil && e.Systolic != nil && e.Diastolic != nil
}

// IsEmpty reports whether no vital has been recorded.
func (e *DailyEntry) IsEmpty() bool {
	return e == nil || (e.Weight == nil && e.Systolic == nil && e.Diastolic == nil &&
		e.HeartRate == nil && e.OxygenSaturation == nil)
}

// Merge copies every non-nil vital of update onto e. It mirrors the COALESCE upsert.
func (e *DailyEntry) Merge(update DailyEntry) {
	if update.Weight != nil {
		w := *update.Weight
		e.Weight = &w
	}
	if update.Systolic != nil {
		e.Systolic = intCopy(update.Systolic)
	}
	if update.Diastolic != nil {
		e.Diastolic = intCopy(update.Diastolic)
	}
	if update.HeartRate != nil {
		e.HeartRate = intCopy(update.HeartRate)
	}
	if update.OxygenSaturation != nil {
		v := *update.OxygenSaturation
		e.OxygenSaturation = &v
	}
	if update.UpdatedAt.After(e.UpdatedAt) {
		e.UpdatedAt = update.UpdatedAt
	}
}

// Validate rejects physically implausible values before they reach classification.
func (e DailyEntry) Validate() error {
	if e.PatientID == "" {
		return invalid("patient_id", "is required")
	}
	if e.Day.IsZero() {
		return invalid("date", "is required")
	}
	if e.Weight != nil {
		switch e.Weight.Unit {
		case WeightUnitPounds, WeightUnitKilograms, "":
		default:
			return invalid("weight_unit", "must be lb or kg, got %q", e.Weight.Unit)
		}
		if lb := e.Weight.Pounds(); lb < 50 || lb > 700 {
			return invalid("weight", "%.1f lb is outside 50-700 lb", lb)
		}
	}
	if e.Systolic != nil && (*e.Systolic < 40 || *e.Systolic > 300) {
		return invalid("systolic", "%d mmHg is outside 40-300", *e.Systolic)
	}
	if e.Diastolic != nil && (*e.Diastolic < 20 || *e.Diastolic > 200) {
		return invalid("diastolic", "%d mmHg is outside 20-200", *e.Diastolic)
	}
	if e.Systolic != nil && e.Diastolic != nil && *e.Diastolic >= *e.Systolic {
		return invalid("diastolic", "must be lower than systolic")
	}
	if e.HeartRate != nil && (*e.HeartRate < 20 || *e.HeartRate > 300) {
		return invalid("heart_rate", "%d bpm is outside 20-300", *e.HeartRate)
	}
	if e.OxygenSaturation != nil && (*e.OxygenSaturation < 50 || *e.OxygenSaturation > 100) {
		return invalid("oxygen_saturation", "%.1f%% is outside 50-100", *e.OxygenSaturation)
	}
	return nil
}

func intCopy(p *int) *int {
	v := *p
	return &v
}
