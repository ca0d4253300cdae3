package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"playtime-cli/model"
	"playtime-cli/schedule"
	"playtime-cli/service"
	"playtime-cli/store"
)

type appState int

const (
	stateLoadingBookings appState = iota
	stateListBookings
	stateBookingDetail
	stateLoadingSessions
	statePickSession
	stateConfirmSwap
	stateSubmitting
	stateConfirmCancel
	stateCancelling
	stateError
)

type appModel struct {
	client *service.Client
	log    *slog.Logger
	now    func() time.Time

	state     appState
	lastState appState
	err       error

	width  int
	height int

	bookings []model.Booking
	booking  model.Booking

	candidates    []model.SessionCandidate
	weekOffset    int
	selected      model.SessionCandidate
	haveSelection bool
	submitErr     string
	submitting    bool

	showPast bool
	flash    string

	bookingList list.Model
	sessionList list.Model
	spinner     spinner.Model

	// flowSeq and flowCancel tie in-flight requests to the open flow: backing
	// out bumps the sequence and cancels the context, so a late response can
	// never touch state the user has already left.
	flowSeq    int
	flowCtx    context.Context
	flowCancel context.CancelFunc
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type bookingsMsg struct {
	bookings []model.Booking
	err      error
}

type candidatesMsg struct {
	seq        int
	candidates []model.SessionCandidate
	err        error
}

type rescheduleMsg struct {
	seq int
	err error
}

type cancelMsg struct {
	seq int
	err error
}

func New(client *service.Client, log *slog.Logger) tea.Model {
	m := appModel{
		client: client,
		log:    log,
		now:    time.Now,
		state:  stateLoadingBookings,
	}

	m.bookingList = newList("My Bookings")
	m.sessionList = newList("Pick a New Session")

	prefs, err := store.LoadViewPrefs()
	if err == nil {
		m.showPast = prefs.ShowPast
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.handleFilterInput(msg) {
			return m, nil
		}
		var handled bool
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case bookingsMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateListBookings)
		}
		m.bookings = msg.bookings
		m.refreshBookingList()
		m.state = stateListBookings
		return m, nil

	case candidatesMsg:
		if msg.seq != m.flowSeq {
			return m, nil
		}
		if msg.err != nil {
			m.endFlow()
			return m, errWithOptionsCmd(msg.err, stateBookingDetail)
		}
		m.candidates = msg.candidates
		m.weekOffset = 0
		m.refreshSessionList()
		m.state = statePickSession
		return m, nil

	case rescheduleMsg:
		if msg.seq != m.flowSeq {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.submitErr = service.UserMessage(msg.err)
			m.state = stateConfirmSwap
			return m, nil
		}
		m.endFlow()
		m.flash = "Booking rescheduled"
		m.state = stateLoadingBookings
		return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick)

	case cancelMsg:
		if msg.seq != m.flowSeq {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.submitErr = service.UserMessage(msg.err)
			m.state = stateConfirmCancel
			return m, nil
		}
		m.endFlow()
		m.flash = "Booking cancelled"
		m.state = stateLoadingBookings
		return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick)
	}

	var cmd tea.Cmd
	switch m.state {
	case stateListBookings:
		m.bookingList, cmd = m.bookingList.Update(msg)
	case statePickSession:
		m.sessionList, cmd = m.sessionList.Update(msg)
	}
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		return m.goBack()
	case "ctrl+r":
		if m.state == stateListBookings {
			m.flash = ""
			m.state = stateLoadingBookings
			return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick), true
		}
	case "ctrl+p":
		if m.state == stateListBookings {
			m.showPast = !m.showPast
			_ = store.SaveViewPrefs(store.ViewPrefs{ShowPast: m.showPast})
			m.refreshBookingList()
			return m, nil, true
		}
	case "tab":
		if m.state == statePickSession && m.weekOffset < schedule.MaxWeekOffset {
			m.weekOffset++
			m.refreshSessionList()
			return m, nil, true
		}
	case "shift+tab":
		if m.state == statePickSession && m.weekOffset > 0 {
			m.weekOffset--
			m.refreshSessionList()
			return m, nil, true
		}
	case "r":
		if m.state == stateBookingDetail {
			return m.startRescheduleFlow()
		}
	case "c":
		if m.state == stateBookingDetail {
			if !schedule.CanCancel(m.booking, m.now()) {
				return m, nil, true
			}
			m.beginFlow()
			m.submitErr = ""
			m.state = stateConfirmCancel
			return m, nil, true
		}
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateListBookings:
			item, ok := m.bookingList.SelectedItem().(bookingItem)
			if !ok {
				return m, nil, true
			}
			m.flash = ""
			m.booking = item.booking
			m.state = stateBookingDetail
			return m, nil, true
		case statePickSession:
			item, ok := m.sessionList.SelectedItem().(sessionItem)
			if !ok {
				return m, nil, true
			}
			if !item.session.Selectable() {
				// full sessions stay visible but cannot be staged
				return m, nil, true
			}
			m.selected = item.session
			m.haveSelection = true
			m.submitErr = ""
			m.state = stateConfirmSwap
			return m, nil, true
		case stateConfirmSwap:
			if m.submitting || !m.haveSelection {
				return m, nil, true
			}
			m.submitting = true
			m.state = stateSubmitting
			return m, tea.Batch(
				m.rescheduleCmd(m.flowSeq, m.booking.Id, m.selected.Id),
				m.spinner.Tick,
			), true
		case stateConfirmCancel:
			if m.submitting {
				return m, nil, true
			}
			m.submitting = true
			m.state = stateCancelling
			return m, tea.Batch(
				m.cancelCmd(m.flowSeq, m.booking.Id),
				m.spinner.Tick,
			), true
		}
	}
	return m, nil, false
}

func (m appModel) startRescheduleFlow() (appModel, tea.Cmd, bool) {
	if reason := schedule.RescheduleBlockReason(m.booking, m.now()); reason != "" {
		// shown as a disabled action in the detail view, not an error
		return m, nil, true
	}
	m.beginFlow()
	m.state = stateLoadingSessions
	return m, tea.Batch(
		m.fetchCandidatesCmd(m.flowSeq, m.booking),
		m.spinner.Tick,
	), true
}

func (m appModel) goBack() (appModel, tea.Cmd, bool) {
	switch m.state {
	case stateBookingDetail:
		m.state = stateListBookings
	case stateLoadingSessions, statePickSession:
		m.endFlow()
		m.state = stateBookingDetail
	case stateConfirmSwap:
		m.haveSelection = false
		m.submitErr = ""
		m.state = statePickSession
	case stateConfirmCancel:
		m.endFlow()
		m.state = stateBookingDetail
	case stateError:
		m.state = m.lastState
	default:
		return m, nil, true
	}
	return m, nil, true
}

// beginFlow opens a fresh request scope for a reschedule or cancel attempt.
func (m *appModel) beginFlow() {
	m.endFlow()
	m.flowCtx, m.flowCancel = context.WithCancel(context.Background())
}

// endFlow tears the scope down: in-flight responses become stale and the
// staged selection is discarded.
func (m *appModel) endFlow() {
	if m.flowCancel != nil {
		m.flowCancel()
		m.flowCancel = nil
	}
	m.flowCtx = nil
	m.flowSeq++
	m.candidates = nil
	m.weekOffset = 0
	m.haveSelection = false
	m.submitErr = ""
	m.submitting = false
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateListBookings:
		return &m.bookingList
	case statePickSession:
		return &m.sessionList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingBookings ||
		m.state == stateLoadingSessions ||
		m.state == stateSubmitting ||
		m.state == stateCancelling
}

func (m *appModel) refreshBookingList() {
	m.bookingList.SetItems(buildBookingItems(m.bookings, m.showPast, m.now()))
	m.bookingList.Select(0)
}

func (m *appModel) refreshSessionList() {
	window := schedule.WindowAt(m.now(), m.weekOffset)
	m.sessionList.Title = fmt.Sprintf("Pick a New Session • week of %s (%d/%d)",
		window.Start.Format("Jan 2"), m.weekOffset+1, schedule.MaxWeekOffset+1)
	m.sessionList.SetItems(buildSessionItems(m.candidates, window))
	m.sessionList.Select(0)
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.bookingList.SetSize(m.width, h)
	m.sessionList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func errWithOptionsCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingBookings:
		return stateListBookings
	case stateLoadingSessions:
		return stateBookingDetail
	case stateSubmitting:
		return stateConfirmSwap
	case stateCancelling:
		return stateConfirmCancel
	default:
		return state
	}
}

func (m appModel) fetchBookingsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		bookings, err := client.MyBookings(ctx)
		return bookingsMsg{bookings: bookings, err: err}
	}
}

func (m appModel) fetchCandidatesCmd(seq int, booking model.Booking) tea.Cmd {
	client := m.client
	ctx := m.flowCtx
	now := m.now
	return func() tea.Msg {
		from, to := schedule.CandidateRange(now())
		candidates, err := client.ListingSessions(ctx, booking.ListingId, from, to)
		if err != nil {
			return candidatesMsg{seq: seq, err: err}
		}
		return candidatesMsg{seq: seq, candidates: schedule.ExcludeSession(candidates, booking.SessionId)}
	}
}

func (m appModel) rescheduleCmd(seq int, bookingId string, sessionId string) tea.Cmd {
	client := m.client
	ctx := m.flowCtx
	return func() tea.Msg {
		return rescheduleMsg{seq: seq, err: client.Reschedule(ctx, bookingId, sessionId)}
	}
}

func (m appModel) cancelCmd(seq int, bookingId string) tea.Cmd {
	client := m.client
	ctx := m.flowCtx
	return func() tea.Msg {
		return cancelMsg{seq: seq, err: client.Cancel(ctx, bookingId)}
	}
}
