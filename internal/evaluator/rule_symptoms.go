package evaluator

import (
	"fmt"
	"strings"

	"hrty-backend/internal/models"
	"hrty-backend/internal/symptom"

	"github.com/samber/lo"
)

// dizzinessRule asks for a blood pressure reading when dizziness reaches the prompt level.
// It does not need a BP reading to fire.
func dizzinessRule(ev *evaluation) []finding {
	limits := ev.set.SymptomLimits()
	obs, ok := lo.Find(symptom.Latest(ev.symptoms), func(o models.SymptomObservation) bool {
		return symptom.PromptsBPCheck(limits, o)
	})
	if !ok || symptom.Validate(obs.Severity) != nil {
		return nil
	}

	msg := fmt.Sprintf("You reported %s dizziness.", strings.ToLower(symptom.Describe(obs.Severity).Label))
	if ev.entry.HasBloodPressure() {
		msg += fmt.Sprintf(" Your blood pressure today was %d/%d mmHg. Check it again now if you can.",
			*ev.entry.Systolic, *ev.entry.Diastolic)
	} else {
		msg += " Please check your blood pressure now and log the reading."
	}

	trigger := &models.TriggerData{
		Category: models.CategoryDizzinessBPCheck,
		Symptoms: []models.SymptomTrigger{{Type: obs.Type, Severity: obs.Severity}},
	}
	if ev.entry.HasBloodPressure() {
		trigger.Systolic = intPtr(*ev.entry.Systolic)
		trigger.Diastolic = intPtr(*ev.entry.Diastolic)
	}
	return []finding{{
		category: models.CategoryDizzinessBPCheck,
		severity: models.StatusCaution,
		message:  msg,
		trigger:  trigger,
	}}
}

// severeSymptomRule raises one severe_symptom alert per day naming every severe symptom.
func severeSymptomRule(ev *evaluation) []finding {
	severe := symptom.Severe(ev.set.SymptomLimits(), ev.symptoms)
	if len(severe) == 0 {
		return nil
	}

	names := lo.Map(severe, func(o models.SymptomObservation, _ int) string { return o.Type.Display() })
	return []finding{{
		category: models.CategorySevereSymptom,
		severity: models.StatusCritical,
		message: fmt.Sprintf("You rated %s as severe. Please contact your care team now. "+
			"If you have chest pain or severe trouble breathing, call 911.", joinNames(names)),
		trigger: &models.TriggerData{
			Category: models.CategorySevereSymptom,
			Symptoms: lo.Map(severe, func(o models.SymptomObservation, _ int) models.SymptomTrigger {
				return models.SymptomTrigger{Type: o.Type, Severity: o.Severity}
			}),
		},
	}}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
