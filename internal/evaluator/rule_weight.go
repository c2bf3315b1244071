package evaluator

import (
	"fmt"

	"hrty-backend/internal/models"
)

// weightRule raises weight_gain_7d on a critical weekly gain, otherwise weight_gain_24h on a
// concerning day-over-day gain. The weekly alert subsumes the daily one within one evaluation.
func weightRule(ev *evaluation) []finding {
	w := ev.weight
	if w == nil || w.FirstEntry {
		return nil
	}
	limits := ev.set.Weight()

	if w.Weekly.Available && w.WeeklyStatus == models.StatusCritical {
		return []finding{{
			category: models.CategoryWeightGain7d,
			severity: models.StatusCritical,
			message: fmt.Sprintf(
				"Your weight is up %s lb over the past week (%s lb on %s, %s lb today). "+
					"A gain this size often means fluid is building up. Please contact your care team today.",
				pounds(w.Weekly.Pounds), pounds(w.Weekly.ReferencePounds),
				w.Weekly.ReferenceDay.Format("Jan 2"), pounds(w.Today)),
			trigger: &models.TriggerData{
				Category:     models.CategoryWeightGain7d,
				WeightLbs:    floatPtr(w.Today),
				DeltaLbs:     floatPtr(round1(w.Weekly.Pounds)),
				ReferenceDay: stringPtr(models.FormatDay(w.Weekly.ReferenceDay)),
				Threshold:    &models.ThresholdData{Max: floatPtr(limits.Gain7d)},
			},
		}}
	}

	if w.DayOverDay.Available && w.Status.IsConcerning() {
		msg := fmt.Sprintf("Your weight is up %s lb since %s (%s lb to %s lb).",
			pounds(w.DayOverDay.Pounds), sinceLabel(w.Day, w.DayOverDay.ReferenceDay),
			pounds(w.DayOverDay.ReferencePounds), pounds(w.Today))
		if w.Status == models.StatusCritical {
			msg += " A sudden gain like this can mean fluid is building up. Please contact your care team today."
		} else {
			msg += " Watch for swelling or shortness of breath and weigh yourself again tomorrow."
		}
		return []finding{{
			category: models.CategoryWeightGain24h,
			severity: w.Status,
			message:  msg,
			trigger: &models.TriggerData{
				Category:     models.CategoryWeightGain24h,
				WeightLbs:    floatPtr(w.Today),
				DeltaLbs:     floatPtr(round1(w.DayOverDay.Pounds)),
				ReferenceDay: stringPtr(models.FormatDay(w.DayOverDay.ReferenceDay)),
				Threshold:    &models.ThresholdData{Max: floatPtr(limits.Gain24h)},
			},
		}}
	}
	return nil
}
