package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speedtype/internal/session"
)

func (m *Model) updateType(msg tea.KeyMsg) tea.Cmd {
	now := m.clock.Now()
	if m.confirmStop {
		switch msg.String() {
		case "y", "enter":
			m.confirmStop = false
			if err := m.session.Stop(now); err != nil {
				return nil
			}
			return m.showResult()
		case "n", "esc":
			m.confirmStop = false
		}
		return nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.session.Phase() == session.PhaseActive {
			m.confirmStop = true
			return nil
		}
		m.screen = screenConfigure
		return m.focusInput()
	case tea.KeyBackspace, tea.KeyDelete:
		_ = m.session.Backspace(now)
		return nil
	case tea.KeySpace:
		return m.typeRunes(now, []rune{' '})
	case tea.KeyRunes:
		return m.typeRunes(now, msg.Runes)
	}
	return nil
}

func (m *Model) typeRunes(now time.Time, runes []rune) tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range runes {
		starting := m.session.Phase() == session.PhaseConfiguring
		if err := m.session.Type(now, r); err != nil {
			break
		}
		if starting {
			cmds = append(cmds, m.waitTick())
		}
		if m.session.Phase() == session.PhaseCompleted {
			cmds = append(cmds, m.showResult())
			break
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) showResult() tea.Cmd {
	m.screen = screenResult
	return m.waitPersisted()
}

func (m *Model) viewType() string {
	if m.confirmStop {
		return m.renderStopModal()
	}
	snap := m.session.Snapshot()
	target := []rune(snap.Target)
	typed := []rune(snap.Typed)
	width := m.contentWidth()

	lines := wrapRunes(typingRunes(target, typed), width)
	height := 0
	if m.height > 0 {
		height = max(3, m.height-6)
	}
	visible := visibleLines(lines, lineFor(lines, len(typed)), height)
	text := joinLines(visible)
	if width > 0 {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.session.Passage().Title))
	b.WriteString(pendingStyle.Render(fmt.Sprintf("  words %d-%d", snap.StartIndex, snap.StartIndex+snap.WindowWords-1)))
	b.WriteString("\n\n")
	b.WriteString(text)
	if snap.Phase == session.PhaseConfiguring {
		b.WriteString("\n\n")
		b.WriteString(footerStyle.Render("start typing to begin  esc back"))
	}
	return b.String()
}

func (m *Model) renderStopModal() string {
	snap := m.session.Snapshot()
	body := strings.Join([]string{
		titleStyle.Render("Stop this test?"),
		"",
		fmt.Sprintf("WPM       %d", snap.WPM),
		fmt.Sprintf("Accuracy  %.2f%%", snap.Accuracy),
		fmt.Sprintf("Time      %s", formatElapsed(snap.ElapsedSeconds)),
		fmt.Sprintf("Words     %d/%d", snap.WordsTyped, snap.WindowWords),
		"",
		footerStyle.Render("y stop and save  n keep typing"),
	}, "\n")
	return modalStyle.Render(body)
}
