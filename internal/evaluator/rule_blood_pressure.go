package evaluator

import (
	"fmt"

	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"
)

// bloodPressureRule raises low_blood_pressure when either component is low.
// High readings are classified for display but do not alert.
func bloodPressureRule(ev *evaluation) []finding {
	if ev.bp == nil {
		return nil
	}
	status, low := ev.bp.LowSide()
	if !low {
		return nil
	}
	sys, dia := *ev.entry.Systolic, *ev.entry.Diastolic
	sb := ev.set.Bounds(thresholds.MetricSystolic)

	return []finding{{
		category: models.CategoryLowBloodPressure,
		severity: status,
		message: fmt.Sprintf("Your blood pressure of %d/%d mmHg is lower than usual. "+
			"Sit or lie down if you feel lightheaded.", sys, dia) + advice(status),
		trigger: &models.TriggerData{
			Category:  models.CategoryLowBloodPressure,
			Systolic:  intPtr(sys),
			Diastolic: intPtr(dia),
			Threshold: &models.ThresholdData{Min: floatPtr(sb.NormalLow)},
		},
	}}
}

// meanArterialPressureRule raises low_map independently of the component rule.
func meanArterialPressureRule(ev *evaluation) []finding {
	if ev.mapResult == nil || !ev.mapResult.Concerning() {
		return nil
	}
	sys, dia := *ev.entry.Systolic, *ev.entry.Diastolic
	b := ev.set.Bounds(thresholds.MetricMeanArterialPressure)

	return []finding{{
		category: models.CategoryLowMAP,
		severity: ev.mapResult.Status,
		message: fmt.Sprintf("Your mean arterial pressure is about %s mmHg (from %d/%d), below %s mmHg.",
			number(round1(ev.mapValue)), sys, dia, number(b.NormalLow)) + advice(ev.mapResult.Status),
		trigger: &models.TriggerData{
			Category:             models.CategoryLowMAP,
			Systolic:             intPtr(sys),
			Diastolic:            intPtr(dia),
			MeanArterialPressure: floatPtr(round1(ev.mapValue)),
			Threshold:            &models.ThresholdData{Min: floatPtr(b.NormalLow)},
		},
	}}
}
