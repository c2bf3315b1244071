package evaluator

import (
	"hrty-backend/internal/classifier"
	"hrty-backend/internal/models"
	"hrty-backend/internal/symptom"
)

// VitalStatus is the display status of one vital. Side is empty when the value is normal.
type VitalStatus struct {
	Status models.Status `json:"status"`
	Side   string        `json:"side,omitempty"`
}

// StatusSummary is the per-vital classification of the day. Absent vitals stay nil.
type StatusSummary struct {
	Weight               *models.Status `json:"weight,omitempty"`
	WeeklyWeight         *models.Status `json:"weekly_weight,omitempty"`
	HeartRate            *VitalStatus   `json:"heart_rate,omitempty"`
	BloodPressure        *models.Status `json:"blood_pressure,omitempty"`
	Systolic             *VitalStatus   `json:"systolic,omitempty"`
	Diastolic            *VitalStatus   `json:"diastolic,omitempty"`
	MeanArterialPressure *float64       `json:"mean_arterial_pressure,omitempty"`
	MAP                  *VitalStatus   `json:"map,omitempty"`
	OxygenSaturation     *VitalStatus   `json:"oxygen_saturation,omitempty"`
	Symptoms             *models.Status `json:"symptoms,omitempty"`
	Overall              models.Status  `json:"overall"`
}

func vital(r classifier.Result) *VitalStatus {
	v := &VitalStatus{Status: r.Status}
	if r.Side != classifier.SideNone {
		v.Side = r.Side.String()
	}
	return v
}

func (ev *evaluation) summary() StatusSummary {
	var s StatusSummary
	var all []models.Status

	if ev.weight != nil && !ev.weight.FirstEntry {
		daily := ev.weight.Status
		s.Weight = &daily
		all = append(all, daily)
		if ev.weight.Weekly.Available {
			weekly := ev.weight.WeeklyStatus
			s.WeeklyWeight = &weekly
			all = append(all, weekly)
		}
	} else if ev.weight != nil {
		normal := models.StatusNormal
		s.Weight = &normal
	}
	if ev.heartRate != nil {
		s.HeartRate = vital(*ev.heartRate)
		all = append(all, ev.heartRate.Status)
	}
	if ev.bp != nil {
		combined := ev.bp.Combined
		s.BloodPressure = &combined
		s.Systolic = vital(ev.bp.Systolic)
		s.Diastolic = vital(ev.bp.Diastolic)
		all = append(all, combined)
	}
	if ev.mapResult != nil {
		m := ev.mapValue
		s.MeanArterialPressure = &m
		s.MAP = vital(*ev.mapResult)
		all = append(all, ev.mapResult.Status)
	}
	if ev.oxygen != nil {
		s.OxygenSaturation = vital(*ev.oxygen)
		all = append(all, ev.oxygen.Status)
	}
	if latest := symptom.Latest(ev.symptoms); len(latest) > 0 {
		worst := models.StatusNormal
		for _, o := range latest {
			if symptom.Validate(o.Severity) == nil {
				worst = models.MaxStatus(worst, symptom.Describe(o.Severity).Tier)
			}
		}
		s.Symptoms = &worst
		all = append(all, worst)
	}

	s.Overall = models.MaxStatus(all...)
	return s
}
