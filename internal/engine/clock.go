package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// It is used by the worker to determine "today" before each check.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns midnight of the current calendar day in loc.
// "Today" is ambiguous without a timezone, so callers must always pass one.
func Today(c Clock, loc *time.Location) time.Time {
	return DateOf(c.Now().In(loc))
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
