// Package clock abstracts the current time and the reference timezone so
// services never reach for time.Now directly and tests can pin the clock.
package clock

import "time"

// Clock provides the current instant and the timezone in which date-only
// user input is interpreted.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type systemClock struct {
	loc *time.Location
}

// New returns a Clock backed by the system time, reporting in loc.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *systemClock) Location() *time.Location {
	return c.loc
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T   time.Time
	Loc *time.Location
}

func (f Fixed) Now() time.Time {
	return f.T.In(f.Location())
}

func (f Fixed) Location() *time.Location {
	if f.Loc == nil {
		return time.UTC
	}
	return f.Loc
}
