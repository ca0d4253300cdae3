package model

import (
	"encoding/json"
	"time"
)

type Booking struct {
	Id                     string
	ListingId              string
	ListingTitle           string
	SessionId              string
	SessionStart           time.Time
	ChildName              string
	Price                  float64
	Status                 BookingStatus
	RescheduleCount        int
	RescheduleLimitMinutes int
}

// UnmarshalJSON is the adapter for the API's inconsistent booking shape:
// session_start vs session_date, booking_status vs status. A booking with an
// unparseable timestamp keeps a zero SessionStart, which makes it ineligible
// for every action instead of failing the whole list.
func (b *Booking) UnmarshalJSON(data []byte) error {
	var raw struct {
		Id                     string  `json:"id"`
		ListingId              string  `json:"listing_id"`
		ListingTitle           string  `json:"listing_title"`
		SessionId              string  `json:"session_id"`
		SessionStart           string  `json:"session_start"`
		SessionDate            string  `json:"session_date"`
		BookingStatus          string  `json:"booking_status"`
		Status                 string  `json:"status"`
		ChildName              string  `json:"child_name"`
		Price                  float64 `json:"price"`
		RescheduleCount        int     `json:"reschedule_count"`
		RescheduleLimitMinutes int     `json:"reschedule_limit_minutes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Id = raw.Id
	b.ListingId = raw.ListingId
	b.ListingTitle = raw.ListingTitle
	b.SessionId = raw.SessionId
	b.ChildName = raw.ChildName
	b.Price = raw.Price
	b.RescheduleCount = raw.RescheduleCount
	b.RescheduleLimitMinutes = raw.RescheduleLimitMinutes

	statusRaw := raw.BookingStatus
	if statusRaw == "" {
		statusRaw = raw.Status
	}
	b.Status = ParseBookingStatus(statusRaw)

	startRaw := raw.SessionStart
	if startRaw == "" {
		startRaw = raw.SessionDate
	}
	if start, err := ParseTime(startRaw); err == nil {
		b.SessionStart = start
	}
	return nil
}

// Upcoming reports whether the booked session has not started yet.
func (b Booking) Upcoming(now time.Time) bool {
	return b.SessionStart.After(now)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTime parses the timestamp formats the booking API is known to emit.
func ParseTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
