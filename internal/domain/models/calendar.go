package models

import (
	"fmt"
	"strconv"
	"strings"
)

type EventImpact string

const (
	ImpactHigh   EventImpact = "high"
	ImpactMedium EventImpact = "medium"
	ImpactLow    EventImpact = "low"
)

// MacroEvent is a scheduled economic release at a UTC clock time of the current day.
type MacroEvent struct {
	Time      string      `json:"time" validate:"required"`
	Name      string      `json:"event" validate:"required"`
	Impact    EventImpact `json:"impact" validate:"oneof=high medium low"`
	Consensus string      `json:"consensus"`
	Previous  string      `json:"previous"`
}

// Hour parses the hour component of the "HH:MM" time.
func (e MacroEvent) Hour() (int, error) {
	h, _, _ := strings.Cut(e.Time, ":")
	n, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, fmt.Errorf("parse event hour %q: %w", e.Time, err)
	}
	if n < 0 || n > 23 {
		return 0, fmt.Errorf("event hour out of range: %d", n)
	}
	return n, nil
}

// CalendarUpdate replaces the day's event list; published on the calendar topic.
type CalendarUpdate struct {
	Events []MacroEvent `json:"events" validate:"dive"`
}
