package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"playtime-cli/model"
	"playtime-cli/schedule"
)

const sessionTimeLayout = "Mon Jan 02 • 15:04"

var (
	flashStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true).Width(10)
	panelStyle   = lipgloss.NewStyle().
			Padding(1, 3).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			MarginTop(1)
)

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingBookings, stateLoadingSessions, stateSubmitting, stateCancelling:
		return header + "\n\n" + m.loadingView()
	case stateListBookings:
		return header + "\n\n" + m.bookingList.View()
	case stateBookingDetail:
		return header + "\n\n" + m.detailView()
	case statePickSession:
		if len(m.sessionList.Items()) == 0 {
			return header + "\n\n" + m.sessionList.Title + "\n\n" +
				hint("No sessions this week. Press tab for the next week, esc to go back.")
		}
		return header + "\n\n" + m.sessionList.View()
	case stateConfirmSwap:
		return header + "\n\n" + m.confirmSwapView()
	case stateConfirmCancel:
		return header + "\n\n" + m.confirmCancelView()
	case stateError:
		return header + "\n\n" + dangerStyle.Render(m.err.Error()) + "\n\n" +
			hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Playtime")
	sub := []string{}
	if m.booking.Id != "" && m.state != stateListBookings && m.state != stateLoadingBookings {
		sub = append(sub, m.booking.ListingTitle)
		if !m.booking.SessionStart.IsZero() {
			sub = append(sub, m.booking.SessionStart.Format(sessionTimeLayout))
		}
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + hint(meta)
	}
	flash := ""
	if m.flash != "" {
		flash = "\n" + flashStyle.Render(m.flash)
	}

	hints := "ctrl+c quit • esc back"
	switch m.state {
	case stateListBookings:
		hints = "ctrl+c quit • enter open booking • type to filter • ctrl+p toggle past • ctrl+r refresh"
	case stateBookingDetail:
		hints = "ctrl+c quit • esc back • r reschedule • c cancel booking"
	case statePickSession:
		hints = "ctrl+c quit • esc back • enter select • tab next week • shift+tab previous week • type to filter"
	case stateConfirmSwap:
		hints = "enter confirm swap • esc go back to picker"
	case stateConfirmCancel:
		hints = "enter confirm cancellation • esc keep booking"
	}

	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + flash + filterLine + "\n" + hint(hints)
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingBookings:
		title = "Loading bookings"
	case stateLoadingSessions:
		title = "Loading sessions"
	case stateSubmitting:
		title = "Rescheduling"
	case stateCancelling:
		title = "Cancelling"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Talking to Playtime..."))
}

func (m appModel) detailView() string {
	now := m.now()
	b := m.booking

	lines := []string{
		detailRow("Listing", b.ListingTitle),
		detailRow("Session", b.SessionStart.Format(sessionTimeLayout)),
		detailRow("Child", b.ChildName),
		detailRow("Status", b.Status.Label()),
	}
	if b.Price > 0 {
		lines = append(lines, detailRow("Price", fmt.Sprintf("$%.2f", b.Price)))
	}
	if b.RescheduleCount >= 1 {
		lines = append(lines, detailRow("", warningStyle.Render("Rescheduled once already")))
	}
	lines = append(lines, "")

	if reason := schedule.RescheduleBlockReason(b, now); reason == "" {
		lines = append(lines, "r  Reschedule to another session")
	} else {
		lines = append(lines, hint(fmt.Sprintf("r  Reschedule unavailable (%s)", reason)))
	}
	if schedule.CanCancel(b, now) {
		lines = append(lines, "c  Cancel this booking")
	} else if b.Status == model.StatusCancelled {
		lines = append(lines, hint("c  Already cancelled"))
	} else {
		lines = append(lines, hint("c  Cancel unavailable (session already started)"))
	}

	return m.panel(strings.Join(lines, "\n"))
}

func (m appModel) confirmSwapView() string {
	lines := []string{
		warningStyle.Render("Confirm reschedule"),
		"",
		detailRow("Current", m.booking.SessionStart.Format(sessionTimeLayout)),
		detailRow("New", m.selected.StartAt.Format(sessionTimeLayout)),
	}
	if m.selected.SeatsAvailable != nil {
		lines = append(lines, detailRow("Seats", fmt.Sprintf("%d left", *m.selected.SeatsAvailable)))
	}
	lines = append(lines,
		"",
		dangerStyle.Render("This uses your one-time reschedule and cannot be undone."),
	)
	if m.submitErr != "" {
		lines = append(lines, "", dangerStyle.Render(m.submitErr))
	}
	return m.panel(strings.Join(lines, "\n"))
}

func (m appModel) confirmCancelView() string {
	lines := []string{
		warningStyle.Render("Cancel booking"),
		"",
		detailRow("Listing", m.booking.ListingTitle),
		detailRow("Session", m.booking.SessionStart.Format(sessionTimeLayout)),
		"",
		dangerStyle.Render("The session spot is released immediately."),
	}
	if m.submitErr != "" {
		lines = append(lines, "", dangerStyle.Render(m.submitErr))
	}
	return m.panel(strings.Join(lines, "\n"))
}

func (m appModel) panel(content string) string {
	style := panelStyle
	if m.width > 56 {
		cardWidth := m.width - 8
		if cardWidth > 84 {
			cardWidth = 84
		}
		style = style.Width(cardWidth)
	}
	panel := style.Render(content)
	if m.width > 0 {
		panel = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, panel)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(panel)
}

func detailRow(label string, value string) string {
	return labelStyle.Render(label) + " " + value
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

type bookingItem struct {
	booking model.Booking
	now     time.Time
}

func (b bookingItem) Title() string {
	when := b.booking.SessionStart.Format(sessionTimeLayout)
	if b.booking.SessionStart.IsZero() {
		when = "unscheduled"
	}
	return fmt.Sprintf("%s • %s", when, b.booking.ListingTitle)
}

func (b bookingItem) Description() string {
	parts := []string{}
	if b.booking.ChildName != "" {
		parts = append(parts, b.booking.ChildName)
	}
	parts = append(parts, b.booking.Status.Label())
	if b.booking.RescheduleCount >= 1 {
		parts = append(parts, "rescheduled")
	}
	if !b.booking.Upcoming(b.now) {
		parts = append(parts, "past")
	}
	return strings.Join(parts, " • ")
}

func (b bookingItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{b.booking.ListingTitle, b.booking.ChildName}, " "))
}

type sessionItem struct {
	session model.SessionCandidate
}

func (s sessionItem) Title() string {
	title := s.session.StartAt.Format(sessionTimeLayout)
	if !s.session.Selectable() {
		title += " • FULL"
	}
	return title
}

func (s sessionItem) Description() string {
	if s.session.SeatsAvailable == nil {
		return ""
	}
	if *s.session.SeatsAvailable <= 0 {
		return "no seats left"
	}
	return fmt.Sprintf("%d seats left", *s.session.SeatsAvailable)
}

func (s sessionItem) FilterValue() string {
	return strings.ToLower(s.session.StartAt.Format(sessionTimeLayout))
}

// buildBookingItems lists upcoming bookings soonest first; past and terminal
// bookings are appended most recent first when showPast is on.
func buildBookingItems(bookings []model.Booking, showPast bool, now time.Time) []list.Item {
	var upcoming []model.Booking
	var past []model.Booking
	for _, booking := range bookings {
		if booking.Upcoming(now) && !booking.Status.Terminal() {
			upcoming = append(upcoming, booking)
		} else {
			past = append(past, booking)
		}
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].SessionStart.Before(upcoming[j].SessionStart)
	})

	items := make([]list.Item, 0, len(upcoming)+len(past))
	for _, booking := range upcoming {
		items = append(items, bookingItem{booking: booking, now: now})
	}
	if showPast {
		sort.Slice(past, func(i, j int) bool {
			return past[i].SessionStart.After(past[j].SessionStart)
		})
		for _, booking := range past {
			items = append(items, bookingItem{booking: booking, now: now})
		}
	}
	return items
}

func buildSessionItems(candidates []model.SessionCandidate, window schedule.WeekWindow) []list.Item {
	inWindow := schedule.FilterWindow(candidates, window)
	items := make([]list.Item, 0, len(inWindow))
	for _, candidate := range inWindow {
		items = append(items, sessionItem{session: candidate})
	}
	return items
}
