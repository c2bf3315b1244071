// Package classifier maps single vital readings onto normal / caution / critical.
// Weight is not classified here; it only has a status through its trend.
package classifier

import (
	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"
)

// Side is the direction a value left the normal band.
type Side int

const (
	SideNone Side = iota
	SideLow
	SideHigh
)

func (s Side) String() string {
	switch s {
	case SideLow:
		return "low"
	case SideHigh:
		return "high"
	default:
		return "none"
	}
}

// Result is the classification of one value.
type Result struct {
	Status models.Status
	Side   Side
}

// Concerning reports whether the value is caution or critical.
func (r Result) Concerning() bool {
	return r.Status.IsConcerning()
}

// Classify places v in the bands of b. Bounds are inclusive on the normal side:
// v == NormalLow is normal, v == CriticalLow is caution.
func Classify(b thresholds.Bounds, v float64) Result {
	switch {
	case v < b.CriticalLow:
		return Result{Status: models.StatusCritical, Side: SideLow}
	case v < b.NormalLow:
		return Result{Status: models.StatusCaution, Side: SideLow}
	}
	if b.LowOnly {
		return Result{Status: models.StatusNormal}
	}
	switch {
	case v > b.CriticalHigh:
		return Result{Status: models.StatusCritical, Side: SideHigh}
	case v > b.NormalHigh:
		return Result{Status: models.StatusCaution, Side: SideHigh}
	}
	return Result{Status: models.StatusNormal}
}

// HeartRate classifies a pulse in bpm.
func HeartRate(set thresholds.Set, bpm int) Result {
	return Classify(set.Bounds(thresholds.MetricHeartRate), float64(bpm))
}

// OxygenSaturation classifies SpO2 in percent. Only the low side matters.
func OxygenSaturation(set thresholds.Set, pct float64) Result {
	return Classify(set.Bounds(thresholds.MetricOxygenSaturation), pct)
}

// BloodPressureResult holds the per-component results and their combination.
type BloodPressureResult struct {
	Systolic  Result
	Diastolic Result
	Combined  models.Status
}

// LowSide reports whether either component is concerning on the low side.
func (r BloodPressureResult) LowSide() (models.Status, bool) {
	status := models.StatusNormal
	for _, c := range []Result{r.Systolic, r.Diastolic} {
		if c.Side == SideLow {
			status = models.MaxStatus(status, c.Status)
		}
	}
	return status, status.IsConcerning()
}

// BloodPressure classifies both components independently; the combined status is the worse one.
func BloodPressure(set thresholds.Set, systolic, diastolic int) BloodPressureResult {
	sys := Classify(set.Bounds(thresholds.MetricSystolic), float64(systolic))
	dia := Classify(set.Bounds(thresholds.MetricDiastolic), float64(diastolic))
	return BloodPressureResult{
		Systolic:  sys,
		Diastolic: dia,
		Combined:  models.MaxStatus(sys.Status, dia.Status),
	}
}

// MeanArterialPressure approximates MAP as diastolic plus a third of the pulse pressure.
func MeanArterialPressure(systolic, diastolic int) float64 {
	return float64(diastolic) + float64(systolic-diastolic)/3
}

// MAP classifies the mean arterial pressure derived from a BP pair.
func MAP(set thresholds.Set, systolic, diastolic int) (float64, Result) {
	m := MeanArterialPressure(systolic, diastolic)
	return m, Classify(set.Bounds(thresholds.MetricMeanArterialPressure), m)
}
