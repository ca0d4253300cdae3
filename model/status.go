package model

import "strings"

// BookingStatus is the normalized status vocabulary. The API is inconsistent
// about both field names and spellings, so raw strings are folded into this
// enum at the decode boundary and never travel further.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusAttended  BookingStatus = "attended"
	StatusNoShow    BookingStatus = "no_show"
	StatusUnknown   BookingStatus = "unknown"
)

func ParseBookingStatus(raw string) BookingStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending
	case "confirmed":
		return StatusConfirmed
	case "canceled", "cancelled":
		return StatusCancelled
	case "attended", "completed":
		return StatusAttended
	case "no_show", "noshow":
		return StatusNoShow
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the booking can no longer change.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusAttended || s == StatusNoShow
}

func (s BookingStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusCancelled:
		return "Cancelled"
	case StatusAttended:
		return "Attended"
	case StatusNoShow:
		return "No-show"
	default:
		return "Unknown"
	}
}
