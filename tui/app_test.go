package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"playtime-cli/logging"
	"playtime-cli/model"
	"playtime-cli/service"
)

func setTestConfigDir(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", root)
}

func newTestModel(t *testing.T, client *service.Client) appModel {
	t.Helper()
	setTestConfigDir(t)
	m := New(client, logging.NewDiscardLogger()).(appModel)
	m.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return m
}

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

func newFilterModel(t *testing.T, items []list.Item) *appModel {
	m := newTestModel(t, nil)
	m.state = stateListBookings
	m.bookingList = newList("My Bookings")
	m.bookingList.SetItems(items)
	return &m
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "Swim Stars"},
		testItem{value: "Mini Chefs"},
	})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.bookingList.FilterValue(); got != "s" {
		t.Fatalf("expected filter value to be %q, got %q", "s", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.bookingList.FilterValue(); got != "sw" {
		t.Fatalf("expected filter value to be %q, got %q", "sw", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel(t, []list.Item{
		testItem{value: "Swim Stars"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.bookingList.FilterValue(); got != "s" {
		t.Fatalf("expected filter value to be %q, got %q", "s", got)
	}
}

func TestCandidatesMsg_StaleSequenceIsDropped(t *testing.T) {
	m := newTestModel(t, nil)
	m.state = statePickSession
	m.flowSeq = 5
	m.candidates = []model.SessionCandidate{{Id: "keep", StartAt: m.now()}}

	updated, cmd := m.Update(candidatesMsg{
		seq:        4,
		candidates: []model.SessionCandidate{{Id: "stale", StartAt: m.now()}},
	})
	if cmd != nil {
		t.Fatal("expected no command for a stale message")
	}
	got := updated.(appModel)
	if got.state != statePickSession {
		t.Fatalf("unexpected state: %d", got.state)
	}
	if len(got.candidates) != 1 || got.candidates[0].Id != "keep" {
		t.Fatalf("expected stale candidates to be ignored, got %+v", got.candidates)
	}
}

func TestGoBackFromPicker_CancelsFlowContext(t *testing.T) {
	m := newTestModel(t, nil)
	m.booking = model.Booking{Id: "b1", ListingId: "lst1"}
	m.beginFlow()
	m.state = statePickSession
	ctx := m.flowCtx
	seq := m.flowSeq

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	got := updated.(appModel)
	if got.state != stateBookingDetail {
		t.Fatalf("unexpected state: %d", got.state)
	}
	if ctx.Err() == nil {
		t.Fatal("expected the flow context to be cancelled on dismissal")
	}
	if got.flowSeq == seq {
		t.Fatal("expected the flow sequence to advance on dismissal")
	}
}

func TestWeekPaging_TabShiftsWindow(t *testing.T) {
	m := newTestModel(t, nil)
	m.state = statePickSession
	now := m.now()
	m.candidates = []model.SessionCandidate{
		{Id: "this-week", StartAt: now.AddDate(0, 0, 2)},
		{Id: "next-week", StartAt: now.AddDate(0, 0, 9)},
	}
	m.refreshSessionList()

	if items := m.sessionList.Items(); len(items) != 1 || items[0].(sessionItem).session.Id != "this-week" {
		t.Fatalf("unexpected initial window items: %+v", items)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	got := updated.(appModel)
	if got.weekOffset != 1 {
		t.Fatalf("expected offset 1, got %d", got.weekOffset)
	}
	if items := got.sessionList.Items(); len(items) != 1 || items[0].(sessionItem).session.Id != "next-week" {
		t.Fatalf("unexpected shifted window items: %+v", items)
	}

	updated, _ = got.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	back := updated.(appModel)
	if back.weekOffset != 0 {
		t.Fatalf("expected offset 0, got %d", back.weekOffset)
	}
}
