package evaluator

import (
	"fmt"

	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"
)

func oxygenRule(ev *evaluation) []finding {
	if ev.oxygen == nil || !ev.oxygen.Concerning() {
		return nil
	}
	pct := *ev.entry.OxygenSaturation
	b := ev.set.Bounds(thresholds.MetricOxygenSaturation)

	return []finding{{
		category: models.CategoryLowOxygenSaturation,
		severity: ev.oxygen.Status,
		message: fmt.Sprintf("Your oxygen level of %s%% is below %s%%.", number(pct), number(b.NormalLow)) +
			advice(ev.oxygen.Status),
		trigger: &models.TriggerData{
			Category:         models.CategoryLowOxygenSaturation,
			OxygenSaturation: floatPtr(pct),
			Threshold:        &models.ThresholdData{Min: floatPtr(b.NormalLow)},
		},
	}}
}
