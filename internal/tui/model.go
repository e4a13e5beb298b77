// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/clock"
	"github.com/verte-zerg/speedtype/internal/generator"
	"github.com/verte-zerg/speedtype/internal/logging"
	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
	statsPkg "github.com/verte-zerg/speedtype/internal/stats"
)

type screen int

const (
	screenSelect screen = iota
	screenConfigure
	screenType
	screenResult
)

// Catalog finds and loads passages a user may practice.
type Catalog interface {
	Search(ctx context.Context, userID int64, query string) ([]model.PassageSummary, error)
	Get(ctx context.Context, id int64) (model.Passage, error)
	CanAccess(ctx context.Context, userID, passageID int64) (bool, error)
}

// History loads a user's recent results for the footer.
type History interface {
	RecentResults(ctx context.Context, userID int64, n int) ([]model.StoredResult, error)
}

// Deps wires a Model to its collaborators.
type Deps struct {
	Context context.Context
	Session *session.Session
	Catalog Catalog
	History History
	Picker  *generator.Picker
	Clock   clock.Clock
	User    model.User
	Logger  *slog.Logger
	Passage int64
	Query   string
}

type (
	passagesMsg struct {
		list []model.PassageSummary
		err  error
	}
	passageMsg struct {
		passage model.Passage
		err     error
	}
	historyMsg struct {
		dashboard statsPkg.Dashboard
		last      *model.StoredResult
		err       error
	}
	tickMsg struct {
		at    time.Time
		ticks <-chan time.Time
	}
	persistedMsg struct {
		err error
	}
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	startWordStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#101010")).Background(lipgloss.Color("#C89A3A"))
	windowWordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	modalStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
)

// Model implements the Bubble Tea typing UI.
type Model struct {
	ctx     context.Context
	session *session.Session
	catalog Catalog
	history History
	picker  *generator.Picker
	clock   clock.Clock
	user    model.User
	log     *slog.Logger

	screen screen
	width  int
	height int

	passages     []model.PassageSummary
	table        table.Model
	search       textinput.Model
	searching    bool
	initialID    int64
	initialQuery string

	countInput    textinput.Model
	startInput    textinput.Model
	focus         int
	previewCursor int

	confirmStop bool

	status     string
	statusWarn bool
	persistErr error
	saving     bool

	dashboard statsPkg.Dashboard
	last      *model.StoredResult
}

// NewModel constructs a typing TUI model.
func NewModel(deps Deps) *Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Logger
	}
	m := &Model{
		ctx:          ctx,
		session:      deps.Session,
		catalog:      deps.Catalog,
		history:      deps.History,
		picker:       deps.Picker,
		clock:        clk,
		user:         deps.User,
		log:          logger.With("user", deps.User.Name),
		initialID:    deps.Passage,
		initialQuery: deps.Query,
	}
	m.table = newPassageTable()
	m.search = newInput("Search: ", 64)
	m.search.SetValue(deps.Query)
	m.countInput = newInput("Words: ", 6)
	m.startInput = newInput("Start: ", 9)
	m.countInput.Validate = digitsOnly
	m.startInput.Validate = digitsOnly
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadPassages(m.initialQuery), m.loadHistory()}
	if m.initialID != 0 {
		cmds = append(cmds, m.loadPassage(m.initialID))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		return m, nil
	case passagesMsg:
		return m, m.handlePassages(msg)
	case passageMsg:
		return m, m.handlePassage(msg)
	case historyMsg:
		if msg.err != nil {
			m.log.Warn("failed to load history", "error", msg.err)
			return m, nil
		}
		m.dashboard = msg.dashboard
		m.last = msg.last
		return m, nil
	case tickMsg:
		if msg.ticks == nil || msg.ticks != m.session.Ticks() {
			return m, nil
		}
		m.session.Tick(msg.at)
		return m, m.waitTick()
	case persistedMsg:
		m.saving = false
		m.persistErr = msg.err
		if msg.err != nil {
			m.log.Warn("result not saved", "error", msg.err)
		}
		return m, m.loadHistory()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.session.Close()
			return m, tea.Quit
		}
		switch m.screen {
		case screenSelect:
			return m, m.updateSelect(msg)
		case screenConfigure:
			return m, m.updateConfigure(msg)
		case screenType:
			return m, m.updateType(msg)
		case screenResult:
			return m, m.updateResult(msg)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenSelect:
		body = m.viewSelect()
	case screenConfigure:
		body = m.viewConfigure()
	case screenType:
		body = m.viewType()
	case screenResult:
		body = m.viewResult()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return body
		}
		return body + "\n\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	bodyHeight := m.height - 1
	content := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return content + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 0
	}
	return max(1, int(float64(m.width)*0.70))
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusWarn = false
}

func (m *Model) setWarning(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusWarn = true
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusWarn {
		return warnStyle.Render(m.status)
	}
	return errorStyle.Render(m.status)
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.screen == screenType {
		snap := m.session.Snapshot()
		progress := 0
		if len(snap.Target) > 0 {
			progress = int(float64(len([]rune(snap.Typed))) / float64(len([]rune(snap.Target))) * 100)
		}
		segments = append(segments,
			fmt.Sprintf("Progress %d%%", progress),
			fmt.Sprintf("%d WPM · %.1f%%", snap.WPM, snap.Accuracy),
			formatElapsed(snap.ElapsedSeconds),
			"esc stop",
		)
	}
	if m.last != nil {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %.1f%%", m.last.WPM, m.last.AccuracyPercent))
	}
	if m.dashboard.Tests > 0 {
		segments = append(segments, fmt.Sprintf("Recent avg %d WPM · %.2f%%", m.dashboard.AverageWPM, m.dashboard.AverageAccuracy))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) loadPassages(query string) tea.Cmd {
	ctx, userID, catalog := m.ctx, m.user.ID, m.catalog
	return func() tea.Msg {
		list, err := catalog.Search(ctx, userID, query)
		return passagesMsg{list: list, err: err}
	}
}

func (m *Model) loadPassage(id int64) tea.Cmd {
	ctx, userID, catalog := m.ctx, m.user.ID, m.catalog
	return func() tea.Msg {
		ok, err := catalog.CanAccess(ctx, userID, id)
		if err != nil {
			return passageMsg{err: err}
		}
		if !ok {
			return passageMsg{err: fmt.Errorf("passage %d is not available", id)}
		}
		p, err := catalog.Get(ctx, id)
		return passageMsg{passage: p, err: err}
	}
}

func (m *Model) loadRandom(exclude int64) tea.Cmd {
	ctx, picker := m.ctx, m.picker
	if picker == nil {
		return nil
	}
	return func() tea.Msg {
		p, err := picker.Pick(ctx, exclude)
		return passageMsg{passage: p, err: err}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	ctx, userID, history := m.ctx, m.user.ID, m.history
	return func() tea.Msg {
		recent, err := history.RecentResults(ctx, userID, statsPkg.DashboardSize)
		if err != nil {
			return historyMsg{err: err}
		}
		msg := historyMsg{}
		if len(recent) > 0 {
			last := recent[0]
			msg.last = &last
		}
		chronological := make([]model.StoredResult, len(recent))
		for i, r := range recent {
			chronological[len(recent)-1-i] = r
		}
		msg.dashboard = statsPkg.BuildDashboard(chronological, statsPkg.DashboardSize)
		return msg
	}
}

func (m *Model) waitTick() tea.Cmd {
	ticks, done := m.session.Ticks(), m.session.TicksDone()
	if ticks == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case at := <-ticks:
			return tickMsg{at: at, ticks: ticks}
		case <-done:
			return nil
		}
	}
}

func (m *Model) waitPersisted() tea.Cmd {
	ch := m.session.Persisted()
	if ch == nil {
		return nil
	}
	m.saving = true
	m.persistErr = nil
	return func() tea.Msg {
		return persistedMsg{err: <-ch}
	}
}

func newInput(prompt string, limit int) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = limit
	return input
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
