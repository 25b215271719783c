// Package period resolves budget periods to concrete time windows.
//
// Windows are computed on calendar boundaries in a caller-supplied timezone
// and returned normalized to UTC as half-open intervals [start, end):
// a transaction belongs to the window when start <= date < end.
//
// Custom periods have no derivable window; their bounds come from the
// budget's own start/end dates, where a nil end means open-ended. Callers
// must branch on the nil explicitly rather than substituting a far-future
// sentinel.
package period

import (
	"fmt"
	"time"

	"paisa/internal/models"
)

// Resolve maps a calendar period and an anchor instant to the half-open
// window [start, end) containing the anchor. Boundaries are computed in loc,
// the returned times are UTC. Returns an error for custom periods.
func Resolve(kind models.BudgetPeriod, anchor time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	a := anchor.In(loc)

	var start, end time.Time
	switch kind {
	case models.BudgetPeriodDaily:
		start = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case models.BudgetPeriodWeekly:
		// Weeks start on Monday.
		offset := (int(a.Weekday()) + 6) % 7
		monday := a.AddDate(0, 0, -offset)
		start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
	case models.BudgetPeriodMonthly:
		start = time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	case models.BudgetPeriodYearly:
		start = time.Date(a.Year(), 1, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("period %q has no derivable window", kind)
	}

	return start.UTC(), end.UTC(), nil
}

// StartOfDay returns 00:00:00 of t's calendar day in loc, normalized to UTC.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).UTC()
}

// EndOfDay returns 23:59:59 of t's calendar day in loc, normalized to UTC.
// This is the storage convention for a budget's own end date: the stored
// bound is end-inclusive, while window matching uses the half-open form
// from Resolve.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc).UTC()
}
