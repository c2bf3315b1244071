package models

import (
	"strings"
	"time"
)

// DiureticDose is an append-only record of one dose taken (diuretic_doses).
type DiureticDose struct {
	DoseID     string    `json:"dose_id" db:"dose_id"`
	PatientID  string    `json:"patient_id" db:"patient_id"`
	Day        time.Time `json:"day" db:"entry_date"`
	Medication string    `json:"medication" db:"medication"`
	DoseMg     float64   `json:"dose_mg" db:"dose_mg"`
	TakenAt    time.Time `json:"taken_at" db:"taken_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (d DiureticDose) Validate() error {
	if d.PatientID == "" {
		return invalid("patient_id", "is required")
	}
	if strings.TrimSpace(d.Medication) == "" {
		return invalid("medication", "is required")
	}
	if d.DoseMg <= 0 || d.DoseMg > 1000 {
		return invalid("dose_mg", "%.1f is outside 0-1000", d.DoseMg)
	}
	return nil
}
