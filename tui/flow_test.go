package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playtime-cli/model"
	"playtime-cli/service"
)

// drainMsgs runs a command tree and collects the messages it produces,
// expanding batches and dropping spinner ticks.
func drainMsgs(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, drainMsgs(t, sub)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func feedOne(t *testing.T, m appModel, cmd tea.Cmd) (appModel, tea.Cmd) {
	t.Helper()
	msgs := drainMsgs(t, cmd)
	require.Len(t, msgs, 1, "expected exactly one message from the command")
	updated, next := m.Update(msgs[0])
	return updated.(appModel), next
}

func eligibleBooking(now time.Time) model.Booking {
	return model.Booking{
		Id:                     "b1",
		ListingId:              "lst1",
		ListingTitle:           "Swim Stars",
		SessionId:              "s0",
		SessionStart:           now.Add(2 * time.Hour),
		ChildName:              "Maya",
		Status:                 model.StatusConfirmed,
		RescheduleCount:        0,
		RescheduleLimitMinutes: 30,
	}
}

func TestRescheduleFlow_HappyPath(t *testing.T) {
	var (
		rescheduleCalls int32
		bookingFetches  int32
		gotBody         map[string]string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookings/my", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&bookingFetches, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bookings": [
			{"id": "b1", "listing_id": "lst1", "session_id": "s-open", "session_start": "2026-03-12T10:00:00Z", "booking_status": "confirmed", "reschedule_count": 1}
		]}`))
	})
	mux.HandleFunc("GET /listings/lst1/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessions": [
			{"id": "s0", "start_at": "2026-03-11T10:00:00Z", "seats_available": 4},
			{"id": "s-open", "start_at": "2026-03-12T10:00:00Z", "seats_available": 5},
			{"id": "s-full", "start_at": "2026-03-13T10:00:00Z", "seats_available": 0}
		]}`))
	})
	mux.HandleFunc("POST /bookings/b1/reschedule", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rescheduleCalls, 1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := service.NewClient(server.Client(), server.URL, "tok", nil)
	m := newTestModel(t, client)
	m.booking = eligibleBooking(m.now())
	m.state = stateBookingDetail

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(appModel)
	require.Equal(t, stateLoadingSessions, m.state)

	m, _ = feedOne(t, m, cmd)
	require.Equal(t, statePickSession, m.state)

	// the booking's own session is excluded, the full one stays listed
	items := m.sessionList.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "s-open", items[0].(sessionItem).session.Id)
	assert.Equal(t, "s-full", items[1].(sessionItem).session.Id)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(appModel)
	require.Equal(t, stateConfirmSwap, m.state)
	require.True(t, m.haveSelection)
	assert.Equal(t, "s-open", m.selected.Id)

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(appModel)
	require.Equal(t, stateSubmitting, m.state)
	require.True(t, m.submitting)

	m, cmd = feedOne(t, m, cmd)
	require.Equal(t, stateLoadingBookings, m.state)
	assert.Equal(t, "Booking rescheduled", m.flash)
	assert.False(t, m.haveSelection)
	assert.False(t, m.submitting)

	assert.Equal(t, int32(1), atomic.LoadInt32(&rescheduleCalls))
	assert.Equal(t, map[string]string{"new_session_id": "s-open"}, gotBody)

	m, _ = feedOne(t, m, cmd)
	require.Equal(t, stateListBookings, m.state)
	assert.Equal(t, int32(1), atomic.LoadInt32(&bookingFetches))
	require.Len(t, m.bookings, 1)
	assert.Equal(t, 1, m.bookings[0].RescheduleCount)
}

func TestRescheduleFlow_RejectionReturnsToConfirm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bookings/b1/reschedule", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Session full"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := service.NewClient(server.Client(), server.URL, "tok", nil)
	m := newTestModel(t, client)
	m.booking = eligibleBooking(m.now())
	m.beginFlow()
	m.selected = model.SessionCandidate{Id: "s-open", StartAt: m.now().AddDate(0, 0, 2)}
	m.haveSelection = true
	m.state = stateConfirmSwap

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(appModel)
	require.Equal(t, stateSubmitting, m.state)

	m, _ = feedOne(t, m, cmd)
	require.Equal(t, stateConfirmSwap, m.state)
	assert.Equal(t, "Session full", m.submitErr)
	assert.False(t, m.submitting)
	assert.True(t, m.haveSelection, "the staged selection survives a rejection")
}

func TestPickSession_FullSessionCannotBeStaged(t *testing.T) {
	m := newTestModel(t, nil)
	m.booking = eligibleBooking(m.now())
	m.beginFlow()
	m.state = statePickSession
	zero := 0
	m.candidates = []model.SessionCandidate{
		{Id: "s-full", StartAt: m.now().AddDate(0, 0, 2), SeatsAvailable: &zero},
	}
	m.refreshSessionList()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(appModel)
	require.Equal(t, statePickSession, m.state)
	assert.False(t, m.haveSelection)
}

func TestCancelFlow_HappyPath(t *testing.T) {
	var cancelCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bookings/b1/cancel", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&cancelCalls, 1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /bookings/my", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bookings": []}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := service.NewClient(server.Client(), server.URL, "tok", nil)
	m := newTestModel(t, client)
	m.booking = eligibleBooking(m.now())
	m.state = stateBookingDetail

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = updated.(appModel)
	require.Equal(t, stateConfirmCancel, m.state)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(appModel)
	require.Equal(t, stateCancelling, m.state)

	m, cmd = feedOne(t, m, cmd)
	require.Equal(t, stateLoadingBookings, m.state)
	assert.Equal(t, "Booking cancelled", m.flash)
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelCalls))

	m, _ = feedOne(t, m, cmd)
	require.Equal(t, stateListBookings, m.state)
}

func TestCancelKey_IgnoredForCancelledBooking(t *testing.T) {
	m := newTestModel(t, nil)
	booking := eligibleBooking(m.now())
	booking.Status = model.StatusCancelled
	m.booking = booking
	m.state = stateBookingDetail

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = updated.(appModel)
	require.Equal(t, stateBookingDetail, m.state)
	assert.Nil(t, cmd)
}
