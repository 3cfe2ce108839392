package util

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, Round(1.235, 2))
	assert.Equal(t, -1.24, Round(-1.235, 2))
	assert.Equal(t, 1.08512, Round(1.085123, 5))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "2639.25", FormatFixed(2639.25, 2))
	assert.Equal(t, "1.07958", FormatFixed(1.079575, 5))
	assert.Equal(t, "0.00", FormatFixed(0, 2))
}

func TestClockLabel(t *testing.T) {
	ts := time.Date(2024, 10, 10, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "09:05", ClockLabel(ts))
}

func TestPreviousWeekday(t *testing.T) {
	// Thursday 2024-10-10
	now := time.Date(2024, 10, 10, 15, 0, 0, 0, time.UTC)
	got := PreviousWeekday(now, time.Tuesday)
	assert.Equal(t, time.Date(2024, 10, 8, 0, 0, 0, 0, time.UTC), got)

	got = PreviousWeekday(now, time.Thursday)
	assert.Equal(t, time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestNextWeekdayAt(t *testing.T) {
	now := time.Date(2024, 10, 10, 15, 0, 0, 0, time.UTC)
	got := NextWeekdayAt(now, time.Friday, 20, 30)
	assert.Equal(t, time.Date(2024, 10, 11, 20, 30, 0, 0, time.UTC), got)

	// past this week's slot rolls to next week
	late := time.Date(2024, 10, 11, 21, 0, 0, 0, time.UTC)
	got = NextWeekdayAt(late, time.Friday, 20, 30)
	assert.Equal(t, time.Date(2024, 10, 18, 20, 30, 0, 0, time.UTC), got)
}
