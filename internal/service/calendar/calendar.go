package calendar

import (
	"sort"
	"sync"

	"Karion/internal/domain/models"
	drepo "Karion/internal/domain/repository"
)

// DefaultEvents is the day's schedule used until an update arrives.
var DefaultEvents = []models.MacroEvent{
	{Time: "14:30", Name: "US Core CPI m/m", Impact: models.ImpactHigh, Consensus: "0.3%", Previous: "0.3%"},
	{Time: "15:00", Name: "ECB President Lagarde Speech", Impact: models.ImpactMedium, Consensus: "-", Previous: "-"},
	{Time: "20:00", Name: "FOMC Member Speech", Impact: models.ImpactHigh, Consensus: "-", Previous: "-"},
	{Time: "22:00", Name: "US Crude Oil Inventories", Impact: models.ImpactMedium, Consensus: "-1.2M", Previous: "-2.5M"},
}

// Calendar holds the macro events of the current day.
type Calendar struct {
	mu     sync.RWMutex
	events []models.MacroEvent
}

func New(events []models.MacroEvent) *Calendar {
	c := &Calendar{}
	c.Replace(events)
	return c
}

// Upcoming returns a copy of the events ordered by time of day.
func (c *Calendar) Upcoming() []models.MacroEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.MacroEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Replace swaps the whole schedule.
func (c *Calendar) Replace(events []models.MacroEvent) {
	next := make([]models.MacroEvent, len(events))
	copy(next, events)
	// "HH:MM" sorts lexically
	sort.SliceStable(next, func(i, j int) bool { return next[i].Time < next[j].Time })

	c.mu.Lock()
	c.events = next
	c.mu.Unlock()
}

var _ drepo.EventCalendar = (*Calendar)(nil)
