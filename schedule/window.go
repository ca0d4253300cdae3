package schedule

import "time"

const (
	// MaxWeekOffset caps how far forward the picker can page.
	MaxWeekOffset = 12
	// CandidateHorizonDays is the range requested from the API per attempt.
	CandidateHorizonDays = 90
)

// WeekWindow is a seven-day span starting at a local midnight.
type WeekWindow struct {
	Start time.Time
	End   time.Time
}

// WindowAt computes the window for a week offset: offset 0 starts today,
// each increment shifts the start by exactly seven days. The offset is
// clamped to [0, MaxWeekOffset].
func WindowAt(today time.Time, offset int) WeekWindow {
	offset = ClampOffset(offset)
	start := truncateDate(today).AddDate(0, 0, offset*7)
	return WeekWindow{Start: start, End: start.AddDate(0, 0, 6)}
}

func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > MaxWeekOffset {
		return MaxWeekOffset
	}
	return offset
}

// Contains reports whether t falls on one of the window's seven days.
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Start.AddDate(0, 0, 7))
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
