package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/model"
	"github.com/verte-zerg/speedtype/internal/session"
)

func newPassageTable() table.Model {
	t := table.New(
		table.WithColumns(passageColumns(60)),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	t.SetStyles(passageTableStyles())
	return t
}

func passageColumns(width int) []table.Column {
	fixed := 6 + 7 + 6
	flexible := max(20, width-fixed)
	title := flexible * 3 / 5
	return []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Title", Width: title},
		{Title: "Author", Width: flexible - title},
		{Title: "Words", Width: 7},
		{Title: "Best", Width: 6},
	}
}

func passageTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#C89A3A")).
		Bold(true)
	return styles
}

func (m *Model) resizeTable() {
	width := m.contentWidth()
	if width <= 0 {
		return
	}
	m.table.SetColumns(passageColumns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(max(3, m.height-8))
}

func (m *Model) handlePassages(msg passagesMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn("failed to list passages", "error", msg.err)
		m.setStatus("Failed to load passages: %v", msg.err)
		return nil
	}
	m.passages = msg.list
	rows := make([]table.Row, 0, len(msg.list))
	for _, p := range msg.list {
		best := "-"
		if p.PersonalBest > 0 {
			best = fmt.Sprintf("%d", p.PersonalBest)
		}
		author := p.Author
		if author == "" {
			author = "-"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", p.ID),
			p.Title,
			author,
			fmt.Sprintf("%d", p.WordCount),
			best,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
	return nil
}

func (m *Model) handlePassage(msg passageMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warn("failed to load passage", "error", msg.err)
		m.setStatus("Failed to load passage: %v", msg.err)
		return nil
	}
	if m.session.Phase() != session.PhaseSelecting {
		m.session.RestartSelection()
	}
	err := m.session.SelectPassage(m.ctx, msg.passage)
	switch {
	case err == nil:
		m.status = ""
	case session.IsPersistence(err):
		m.setWarning("Resume position unavailable: %v", err)
	default:
		m.setStatus("Cannot practice %q: %v", msg.passage.Title, err)
		return nil
	}
	m.screen = screenConfigure
	m.focus = focusCount
	m.previewCursor = 0
	m.syncInputs()
	return m.focusInput()
}

func (m *Model) selectedPassage() (model.PassageSummary, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.passages) {
		return model.PassageSummary{}, false
	}
	return m.passages[idx], true
}

func (m *Model) updateSelect(msg tea.KeyMsg) tea.Cmd {
	if m.searching {
		switch msg.Type {
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			return nil
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			return m.loadPassages(strings.TrimSpace(m.search.Value()))
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.session.Close()
		return tea.Quit
	case "/":
		m.searching = true
		return m.search.Focus()
	case "r":
		var exclude int64
		if p, ok := m.selectedPassage(); ok {
			exclude = p.ID
		}
		return m.loadRandom(exclude)
	case "enter":
		p, ok := m.selectedPassage()
		if !ok {
			return nil
		}
		return m.loadPassage(p.ID)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model) viewSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Choose a passage"))
	b.WriteString("\n\n")
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}
	if len(m.passages) == 0 {
		b.WriteString(pendingStyle.Render("No passages found. Upload one with `speedtype upload <file>`."))
	} else {
		b.WriteString(m.table.View())
	}
	if status := m.renderStatus(); status != "" {
		b.WriteString("\n\n")
		b.WriteString(status)
	}
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("enter select  / search  r random  q quit"))
	return b.String()
}
