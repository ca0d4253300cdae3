package schedule

import (
	"sort"
	"time"

	"playtime-cli/model"
)

// ExcludeSession drops the booking's own session from the candidate list so
// the picker never offers a swap to the same slot.
func ExcludeSession(candidates []model.SessionCandidate, sessionId string) []model.SessionCandidate {
	if sessionId == "" {
		return candidates
	}
	filtered := make([]model.SessionCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Id == sessionId {
			continue
		}
		filtered = append(filtered, candidate)
	}
	return filtered
}

// FilterWindow returns the candidates inside the window, sorted by start time.
func FilterWindow(candidates []model.SessionCandidate, window WeekWindow) []model.SessionCandidate {
	var filtered []model.SessionCandidate
	for _, candidate := range candidates {
		if window.Contains(candidate.StartAt) {
			filtered = append(filtered, candidate)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].StartAt.Before(filtered[j].StartAt)
	})
	return filtered
}

// CandidateRange is the date span requested per reschedule attempt:
// today through today plus the horizon.
func CandidateRange(now time.Time) (time.Time, time.Time) {
	from := truncateDate(now)
	return from, from.AddDate(0, 0, CandidateHorizonDays)
}
