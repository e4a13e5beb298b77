package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) updateResult(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r", "enter":
		if err := m.session.Reconfigure(); err != nil {
			m.setStatus("%v", err)
			return nil
		}
		m.screen = screenConfigure
		m.status = ""
		m.syncInputs()
		return m.focusInput()
	case "n", "esc":
		m.session.RestartSelection()
		m.screen = screenSelect
		m.status = ""
		return m.loadPassages(strings.TrimSpace(m.search.Value()))
	case "q":
		m.session.Close()
		return tea.Quit
	}
	return nil
}

func (m *Model) viewResult() string {
	res, ok := m.session.Result()
	if !ok {
		return pendingStyle.Render("No result.")
	}
	heading := "Test complete"
	if res.IsPartial {
		heading = "Test stopped early"
	}
	lines := []string{
		titleStyle.Render(heading),
		pendingStyle.Render(m.session.Passage().Title),
		"",
		fmt.Sprintf("WPM        %d", res.WPM),
		fmt.Sprintf("Accuracy   %.2f%%", res.AccuracyPercent),
		fmt.Sprintf("Errors     %d", res.ErrorCount),
		fmt.Sprintf("Keystrokes %d", res.CharactersTypedCount),
		fmt.Sprintf("Time       %s", formatElapsed(res.ElapsedSeconds)),
		fmt.Sprintf("Reached    word %d (%d in window)", res.WordIndexReached, res.TotalWordsInWindow),
		"",
	}
	switch {
	case m.saving:
		lines = append(lines, footerStyle.Render("Saving…"))
	case m.persistErr != nil:
		lines = append(lines, warnStyle.Render(fmt.Sprintf("Not saved: %v", m.persistErr)))
	default:
		lines = append(lines, footerStyle.Render("Saved."))
	}
	if p := m.session.Passage(); p.UserID == m.user.ID && res.WPM > p.PersonalBest && !m.saving && m.persistErr == nil {
		lines = append(lines, currentWordStyle.Render("New personal best!"))
	}
	if status := m.renderStatus(); status != "" {
		lines = append(lines, status)
	}
	lines = append(lines, "", footerStyle.Render("r retry  n new passage  q quit"))
	return strings.Join(lines, "\n")
}
