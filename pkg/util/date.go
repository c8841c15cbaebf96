package util

import "time"

// DayFloor truncates a timestamp to UTC midnight of its calendar day.
func DayFloor(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b, both taken
// at UTC midnight. Negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DayFloor(b).Sub(DayFloor(a)) / (24 * time.Hour))
}

// DayRange returns every UTC calendar day from first to last inclusive.
func DayRange(first, last time.Time) []time.Time {
	from := DayFloor(first)
	to := DayFloor(last)
	if to.Before(from) {
		return nil
	}
	out := make([]time.Time, 0, DaysBetween(from, to)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
