package model

import "time"

// SessionCandidate is one alternative session offered during a reschedule.
// SeatsAvailable is nil when the listing does not track seats.
type SessionCandidate struct {
	Id             string
	StartAt        time.Time
	SeatsAvailable *int
}

// Selectable reports whether the candidate can be staged for confirmation.
// A full session stays visible but cannot be picked.
func (s SessionCandidate) Selectable() bool {
	return s.SeatsAvailable == nil || *s.SeatsAvailable > 0
}
