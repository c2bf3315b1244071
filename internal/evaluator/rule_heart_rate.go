package evaluator

import (
	"fmt"

	"hrty-backend/internal/classifier"
	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"
)

// heartRateRule raises heart_rate_low or heart_rate_high on a concerning pulse.
func heartRateRule(ev *evaluation) []finding {
	r := ev.heartRate
	if r == nil || !r.Concerning() {
		return nil
	}
	bpm := *ev.entry.HeartRate
	b := ev.set.Bounds(thresholds.MetricHeartRate)

	f := finding{
		severity: r.Status,
		trigger: &models.TriggerData{
			HeartRate: intPtr(bpm),
			Threshold: &models.ThresholdData{Min: floatPtr(b.NormalLow), Max: floatPtr(b.NormalHigh)},
		},
	}
	direction := "below"
	f.category = models.CategoryHeartRateLow
	if r.Side == classifier.SideHigh {
		direction = "above"
		f.category = models.CategoryHeartRateHigh
	}
	f.trigger.Category = f.category
	f.message = fmt.Sprintf("Your heart rate of %d bpm is %s your usual range (%s-%s bpm).",
		bpm, direction, number(b.NormalLow), number(b.NormalHigh)) + advice(r.Status)
	return []finding{f}
}
