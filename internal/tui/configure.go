package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/session"
)

const (
	focusCount = iota
	focusStart
	focusPreview
	focusFields
)

func digitsOnly(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return errors.New("digits only")
		}
	}
	return nil
}

func (m *Model) syncInputs() {
	count, start := m.session.Settings()
	m.countInput.SetValue(strconv.Itoa(count))
	m.startInput.SetValue(strconv.Itoa(start))
}

func (m *Model) focusInput() tea.Cmd {
	m.countInput.Blur()
	m.startInput.Blur()
	switch m.focus {
	case focusCount:
		return m.countInput.Focus()
	case focusStart:
		return m.startInput.Focus()
	}
	return nil
}

func (m *Model) cycleFocus(delta int) tea.Cmd {
	m.focus = (m.focus + delta + focusFields) % focusFields
	return m.focusInput()
}

// stageInputs hands the typed count and start to the session.
func (m *Model) stageInputs() error {
	count, err := parseField("word count", m.countInput.Value())
	if err != nil {
		return err
	}
	start, err := parseField("start index", m.startInput.Value())
	if err != nil {
		return err
	}
	if err := m.session.SetCount(count); err != nil {
		return err
	}
	return m.session.SetStartIndex(start)
}

func parseField(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

func (m *Model) startTyping() tea.Cmd {
	m.countInput.Blur()
	m.startInput.Blur()
	m.confirmStop = false
	m.status = ""
	m.screen = screenType
	return nil
}

func (m *Model) updateConfigure(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.session.RestartSelection()
		m.screen = screenSelect
		m.status = ""
		return m.loadPassages(strings.TrimSpace(m.search.Value()))
	case "tab":
		return m.cycleFocus(1)
	case "shift+tab":
		return m.cycleFocus(-1)
	case "enter":
		if err := m.stageInputs(); err != nil {
			m.setStatus("%v", err)
			return nil
		}
		if err := m.session.ApplyConfiguration(); err != nil {
			m.setStatus("%v", err)
			return nil
		}
		return m.startTyping()
	case "ctrl+r":
		if err := m.session.ResumeFromMarker(); err != nil {
			if errors.Is(err, session.ErrNoResume) {
				m.setWarning("No resume position for this passage yet.")
				return nil
			}
			m.setStatus("%v", err)
			return nil
		}
		m.syncInputs()
		return m.startTyping()
	case "ctrl+x":
		m.session.ResetPreview()
		m.previewCursor = 0
		m.syncInputs()
		return nil
	case "pgdown", "ctrl+f":
		m.session.ScrollPreviewForward()
		m.clampPreviewCursor()
		return nil
	case "pgup", "ctrl+b":
		m.session.ScrollPreviewBackward()
		m.clampPreviewCursor()
		return nil
	}

	if m.focus == focusPreview {
		return m.updatePreview(msg)
	}
	var cmd tea.Cmd
	if m.focus == focusCount {
		m.countInput, cmd = m.countInput.Update(msg)
	} else {
		m.startInput, cmd = m.startInput.Update(msg)
	}
	return cmd
}

func (m *Model) updatePreview(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		m.previewCursor--
	case "right", "l":
		m.previewCursor++
	case "home":
		m.previewCursor = 0
	case "end":
		m.previewCursor = len(m.session.PreviewWords()) - 1
	case " ":
		if count, err := parseField("word count", m.countInput.Value()); err == nil {
			_ = m.session.SetCount(count)
		}
		if err := m.session.SetStartFromPreviewClick(m.previewCursor); err != nil {
			m.setStatus("%v", err)
			return nil
		}
		m.status = ""
		m.syncInputs()
	}
	m.clampPreviewCursor()
	return nil
}

func (m *Model) clampPreviewCursor() {
	n := len(m.session.PreviewWords())
	if m.previewCursor >= n {
		m.previewCursor = n - 1
	}
	if m.previewCursor < 0 {
		m.previewCursor = 0
	}
}

func (m *Model) viewConfigure() string {
	p := m.session.Passage()
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Title))
	if p.Author != "" {
		b.WriteString(pendingStyle.Render("  by " + p.Author))
	}
	b.WriteString("\n\n")
	b.WriteString(m.countInput.View())
	b.WriteString("   ")
	b.WriteString(m.startInput.View())
	b.WriteString(pendingStyle.Render(fmt.Sprintf(" of %d words", m.session.Window().TotalWords)))
	if offset, ok := m.session.Resume(); ok {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("Last reached word %d · ctrl+r to resume", offset)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderPreview())
	if status := m.renderStatus(); status != "" {
		b.WriteString("\n\n")
		b.WriteString(status)
	}
	b.WriteString("\n\n")
	help := "tab focus  enter start  pgup/pgdn scroll  ctrl+x reset  esc back"
	if m.focus == focusPreview {
		help = "←/→ move  space set start  " + help
	}
	b.WriteString(footerStyle.Render(help))
	return b.String()
}

func (m *Model) renderPreview() string {
	ws := m.session.PreviewWords()
	if len(ws) == 0 {
		return pendingStyle.Render("(empty passage)")
	}
	offset := m.session.PreviewOffset()
	count, start := m.session.Settings()
	styleFor := func(i int) lipgloss.Style {
		abs := offset + i
		style := pendingStyle
		switch {
		case abs == start:
			style = startWordStyle
		case abs > start && abs < start+count:
			style = windowWordStyle
		}
		if m.focus == focusPreview && i == m.previewCursor {
			style = style.Underline(true)
		}
		return style
	}
	lines := wrapRunes(previewRunes(ws, styleFor), m.contentWidth())
	header := footerStyle.Render(fmt.Sprintf("Words %d-%d", offset, offset+len(ws)-1))
	return header + "\n" + joinLines(lines)
}
