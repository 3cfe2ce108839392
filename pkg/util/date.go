package util

import "time"

// ClockLabel formats t as "HH:MM" in UTC.
func ClockLabel(t time.Time) string {
	return t.UTC().Format("15:04")
}

// PreviousWeekday returns the most recent day (today included) falling on wd, truncated to midnight UTC.
func PreviousWeekday(now time.Time, wd time.Weekday) time.Time {
	d := now.UTC()
	back := (int(d.Weekday()) - int(wd) + 7) % 7
	d = d.AddDate(0, 0, -back)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// NextWeekdayAt returns the next instant strictly after now that falls on wd at hh:mm UTC.
func NextWeekdayAt(now time.Time, wd time.Weekday, hh, mm int) time.Time {
	n := now.UTC()
	ahead := (int(wd) - int(n.Weekday()) + 7) % 7
	d := n.AddDate(0, 0, ahead)
	at := time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.UTC)
	if !at.After(n) {
		at = at.AddDate(0, 0, 7)
	}
	return at
}
