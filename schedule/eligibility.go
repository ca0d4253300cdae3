// Package schedule holds the pure booking policy: reschedule and cancel
// eligibility, week-window pagination, and candidate filtering. Everything
// takes the current time as an argument so the rules stay deterministic.
package schedule

import (
	"fmt"
	"time"

	"playtime-cli/model"
)

// DefaultRescheduleLimitMinutes applies when a booking carries no limit.
const DefaultRescheduleLimitMinutes = 30

// CanReschedule reports whether the booking may still be swapped to another
// session: the session must be upcoming, strictly more than the limit away,
// and the one-time reschedule must not have been used yet.
func CanReschedule(b model.Booking, now time.Time) bool {
	return RescheduleBlockReason(b, now) == ""
}

// RescheduleBlockReason returns an empty string when rescheduling is allowed,
// otherwise a short human-readable reason for the disabled action.
func RescheduleBlockReason(b model.Booking, now time.Time) string {
	if b.RescheduleCount >= 1 {
		return "already rescheduled once"
	}
	if !b.Upcoming(now) {
		return "session already started"
	}
	limit := b.RescheduleLimitMinutes
	if limit <= 0 {
		limit = DefaultRescheduleLimitMinutes
	}
	if b.SessionStart.Sub(now) <= time.Duration(limit)*time.Minute {
		return fmt.Sprintf("starts in under %d minutes", limit)
	}
	return ""
}

// CanCancel has no time window: any upcoming booking that is not already
// cancelled may be cancelled.
func CanCancel(b model.Booking, now time.Time) bool {
	return b.Status != model.StatusCancelled && b.Upcoming(now)
}
