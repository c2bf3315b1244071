package evaluator

import (
	"math"
	"strconv"
	"time"

	"hrty-backend/internal/models"
)

func advice(status models.Status) string {
	if status == models.StatusCritical {
		return " Please contact your care team promptly."
	}
	return " Keep an eye on it and recheck later today."
}

func pounds(v float64) string {
	return strconv.FormatFloat(math.Abs(v), 'f', 1, 64)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sinceLabel(today, ref time.Time) string {
	if models.DaysBetween(ref, today) == 1 {
		return "yesterday"
	}
	return ref.Format("Jan 2")
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
