// Package trend evaluates weight change over a patient's daily weights.
package trend

import (
	"sort"
	"time"

	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"

	"github.com/samber/lo"
)

// weeklyWindow is the exact look-back, in calendar days, of the weekly delta.
const weeklyWindow = 7

// Sample is one day's weight in pounds.
type Sample struct {
	Day    time.Time `json:"day"`
	Pounds float64   `json:"pounds"`
}

// Delta is the change from a reference day to today. Available is false when no
// reference weight exists, which is not an error.
type Delta struct {
	Available       bool      `json:"available"`
	Pounds          float64   `json:"pounds,omitempty"`
	ReferenceDay    time.Time `json:"reference_day,omitempty"`
	ReferencePounds float64   `json:"reference_pounds,omitempty"`
}

// Result is the weight evaluation for the latest day of a series.
type Result struct {
	Day          time.Time     `json:"day"`
	Today        float64       `json:"today"`
	FirstEntry   bool          `json:"first_entry"`
	DayOverDay   Delta         `json:"day_over_day"`
	Weekly       Delta         `json:"weekly"`
	Status       models.Status `json:"status"`
	WeeklyStatus models.Status `json:"weekly_status"`
}

// Evaluate computes both deltas for the latest day in samples. It returns false for an
// empty series. Several samples on the same day are edits: the last one in input order wins.
func Evaluate(limits thresholds.WeightChange, samples []Sample) (Result, bool) {
	days := byDay(samples)
	if len(days) == 0 {
		return Result{}, false
	}
	ordered := sortedDays(days)
	today := ordered[len(ordered)-1]

	res := Result{
		Day:   today,
		Today: days[today],
	}

	if len(ordered) == 1 {
		res.FirstEntry = true
		return res, true
	}

	prev := ordered[len(ordered)-2]
	res.DayOverDay = Delta{
		Available:       true,
		Pounds:          days[today] - days[prev],
		ReferenceDay:    prev,
		ReferencePounds: days[prev],
	}
	res.Status = Classify(limits, res.DayOverDay.Pounds)

	weekAgo := today.AddDate(0, 0, -weeklyWindow)
	if ref, ok := days[weekAgo]; ok {
		res.Weekly = Delta{
			Available:       true,
			Pounds:          days[today] - ref,
			ReferenceDay:    weekAgo,
			ReferencePounds: ref,
		}
		res.WeeklyStatus = Classify(limits, res.Weekly.Pounds)
	}

	return res, true
}

// Classify grades a weight gain in pounds. Losses are always normal.
func Classify(limits thresholds.WeightChange, gain float64) models.Status {
	switch {
	case gain >= limits.Gain7d:
		return models.StatusCritical
	case gain >= limits.Gain24h:
		return models.StatusCaution
	default:
		return models.StatusNormal
	}
}

// Point is one day of the display series.
type Point struct {
	Day    time.Time `json:"day"`
	Pounds float64   `json:"pounds"`
	Change *float64  `json:"change,omitempty"`
}

// Series returns the per-day weights within [from, to] with their change from the
// closest prior weighed day, which may fall before from.
func Series(samples []Sample, from, to time.Time) []Point {
	days := byDay(samples)
	ordered := sortedDays(days)

	points := make([]Point, 0, len(ordered))
	for i, day := range ordered {
		if day.Before(from) || day.After(to) {
			continue
		}
		p := Point{Day: day, Pounds: days[day]}
		if i > 0 {
			change := days[day] - days[ordered[i-1]]
			p.Change = &change
		}
		points = append(points, p)
	}
	return points
}

func byDay(samples []Sample) map[time.Time]float64 {
	days := make(map[time.Time]float64, len(samples))
	for _, s := range samples {
		days[models.DayOf(s.Day, time.UTC)] = s.Pounds
	}
	return days
}

func sortedDays(days map[time.Time]float64) []time.Time {
	keys := lo.Keys(days)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
