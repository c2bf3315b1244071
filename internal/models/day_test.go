package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_UsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on the 18th is still the 17th in New York.
	ts := time.Date(2026, 10, 18, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-17", FormatDay(DayOf(ts, ny)))
	assert.Equal(t, "2026-10-18", FormatDay(DayOf(ts, nil)))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDay("09/03/2026")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysBetween(a, b))
	assert.Equal(t, -7, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a.Add(23*time.Hour)))
}
