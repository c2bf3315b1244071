// Package thresholds holds the numeric cutoffs every classifier reads.
package thresholds

import (
	"fmt"
)

// Metric identifies a vital sign that has instantaneous bounds.
// Weight is deliberately absent: it is only classified through its change (see WeightChange).
type Metric string

const (
	MetricHeartRate            Metric = "heart_rate"
	MetricSystolic             Metric = "systolic"
	MetricDiastolic            Metric = "diastolic"
	MetricOxygenSaturation     Metric = "oxygen_saturation"
	MetricMeanArterialPressure Metric = "mean_arterial_pressure"
)

// Bounds partitions a metric's value space into normal, caution and critical bands.
// Normal is [NormalLow, NormalHigh]; critical is below CriticalLow or above CriticalHigh;
// everything in between is caution. LowOnly metrics ignore the high side.
type Bounds struct {
	CriticalLow  float64 `json:"critical_low" yaml:"critical_low"`
	NormalLow    float64 `json:"normal_low" yaml:"normal_low"`
	NormalHigh   float64 `json:"normal_high,omitempty" yaml:"normal_high,omitempty"`
	CriticalHigh float64 `json:"critical_high,omitempty" yaml:"critical_high,omitempty"`
	LowOnly      bool    `json:"low_only,omitempty" yaml:"low_only,omitempty"`
}

// WeightChange holds the weight-gain cutoffs in pounds.
type WeightChange struct {
	Gain24h float64 `json:"gain_24h" yaml:"gain_24h"`
	Gain7d  float64 `json:"gain_7d" yaml:"gain_7d"`
}

// SymptomLimits holds the severity levels that drive symptom alerts.
type SymptomLimits struct {
	DizzinessPrompt int `json:"dizziness_prompt" yaml:"dizziness_prompt"`
	Severe          int `json:"severe" yaml:"severe"`
}

// Set is the full threshold table.
type Set struct {
	HeartRate            Bounds        `json:"heart_rate" yaml:"heart_rate"`
	Systolic             Bounds        `json:"systolic" yaml:"systolic"`
	Diastolic            Bounds        `json:"diastolic" yaml:"diastolic"`
	OxygenSaturation     Bounds        `json:"oxygen_saturation" yaml:"oxygen_saturation"`
	MeanArterialPressure Bounds        `json:"mean_arterial_pressure" yaml:"mean_arterial_pressure"`
	WeightChange         WeightChange  `json:"weight_change" yaml:"weight_change"`
	Symptoms             SymptomLimits `json:"symptoms" yaml:"symptoms"`
}

// Default returns the guideline table used when no override is configured.
func Default() Set {
	return Set{
		HeartRate:            Bounds{CriticalLow: 40, NormalLow: 60, NormalHigh: 100, CriticalHigh: 150},
		Systolic:             Bounds{CriticalLow: 80, NormalLow: 90, NormalHigh: 140, CriticalHigh: 180},
		Diastolic:            Bounds{CriticalLow: 50, NormalLow: 60, NormalHigh: 90, CriticalHigh: 120},
		OxygenSaturation:     Bounds{CriticalLow: 88, NormalLow: 92, LowOnly: true},
		MeanArterialPressure: Bounds{CriticalLow: 60, NormalLow: 65, LowOnly: true},
		WeightChange:         WeightChange{Gain24h: 2.0, Gain7d: 5.0},
		Symptoms:             SymptomLimits{DizzinessPrompt: 3, Severe: 5},
	}
}

// Metrics lists every metric Bounds accepts.
func Metrics() []Metric {
	return []Metric{
		MetricHeartRate,
		MetricSystolic,
		MetricDiastolic,
		MetricOxygenSaturation,
		MetricMeanArterialPressure,
	}
}

// Bounds looks up the bounds of m. The metric set is closed, so an unknown metric
// is a programming error and panics.
func (s Set) Bounds(m Metric) Bounds {
	switch m {
	case MetricHeartRate:
		return s.HeartRate
	case MetricSystolic:
		return s.Systolic
	case MetricDiastolic:
		return s.Diastolic
	case MetricOxygenSaturation:
		return s.OxygenSaturation
	case MetricMeanArterialPressure:
		return s.MeanArterialPressure
	default:
		panic(fmt.Sprintf("thresholds: unsupported metric %q", string(m)))
	}
}

// Weight returns the weight-gain cutoffs.
func (s Set) Weight() WeightChange {
	return s.WeightChange
}

// SymptomLimits returns the symptom severity cutoffs.
func (s Set) SymptomLimits() SymptomLimits {
	return s.Symptoms
}

// Validate enforces that the bands of every metric partition the value space:
// critical bounds strictly outside normal bounds, no overlap, no gaps.
func (s Set) Validate() error {
	for _, m := range Metrics() {
		if err := s.Bounds(m).validate(); err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
	}
	if s.WeightChange.Gain24h <= 0 {
		return fmt.Errorf("weight_change: gain_24h must be positive")
	}
	if s.WeightChange.Gain7d <= s.WeightChange.Gain24h {
		return fmt.Errorf("weight_change: gain_7d (%.1f) must exceed gain_24h (%.1f)",
			s.WeightChange.Gain7d, s.WeightChange.Gain24h)
	}
	if s.Symptoms.DizzinessPrompt < 1 || s.Symptoms.DizzinessPrompt > 5 {
		return fmt.Errorf("symptoms: dizziness_prompt must be within 1-5")
	}
	if s.Symptoms.Severe < 2 || s.Symptoms.Severe > 5 {
		return fmt.Errorf("symptoms: severe must be within 2-5")
	}
	return nil
}

func (b Bounds) validate() error {
	if b.CriticalLow >= b.NormalLow {
		return fmt.Errorf("critical_low (%g) must be below normal_low (%g)", b.CriticalLow, b.NormalLow)
	}
	if b.LowOnly {
		return nil
	}
	if b.NormalLow > b.NormalHigh {
		return fmt.Errorf("normal_low (%g) must not exceed normal_high (%g)", b.NormalLow, b.NormalHigh)
	}
	if b.NormalHigh >= b.CriticalHigh {
		return fmt.Errorf("normal_high (%g) must be below critical_high (%g)", b.NormalHigh, b.CriticalHigh)
	}
	return nil
}
