package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTypingRunesCursor(t *testing.T) {
	runes := typingRunes([]rune("a b"), []rune("a"))
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != cursorStyle.Render(" ") {
		t.Fatalf("expected cursor style on the space")
	}
	if !runes[1].isSpace || runes[2].isSpace {
		t.Fatalf("unexpected space flags")
	}
}

func TestTypingRunesNoCursorWhenComplete(t *testing.T) {
	runes := typingRunes([]rune("a"), []rune("a"))
	if len(runes) != 1 || runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected a single correct rune")
	}
}

func TestTypingRunesKeepsTargetOnMistype(t *testing.T) {
	runes := typingRunes([]rune("ab"), []rune("ax"))
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style showing the target rune")
	}
}

func TestTypingRunesWordHighlighting(t *testing.T) {
	runes := typingRunes([]rune("one two"), []rune("o"))
	if runes[1].s != currentWordStyle.Underline(true).Render("n") {
		t.Fatalf("expected underlined current word rune at cursor")
	}
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestTypingRunesWrongSpaceDot(t *testing.T) {
	runes := typingRunes([]rune("a b"), []rune("ax"))
	if runes[1].s != incorrectStyle.Render("•") {
		t.Fatalf("expected dot for wrong space")
	}
}

func TestPreviewRunesStylesWords(t *testing.T) {
	styleFor := func(i int) lipgloss.Style {
		if i == 1 {
			return startWordStyle
		}
		return pendingStyle
	}
	runes := previewRunes([]string{"ab", "cd"}, styleFor)
	if len(runes) != 5 {
		t.Fatalf("expected 5 runes, got %d", len(runes))
	}
	if !runes[2].isSpace {
		t.Fatalf("expected separator space")
	}
	if runes[3].s != startWordStyle.Render("c") {
		t.Fatalf("expected start word style")
	}
}

func TestWrapRunesBreaksAtSpaces(t *testing.T) {
	runes := typingRunes([]rune("ab cd ef"), nil)
	lines := wrapRunes(runes, 5)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].start != 0 || lines[0].end != 6 || lines[1].start != 6 || lines[1].end != 8 {
		t.Fatalf("unexpected ranges %+v", lines)
	}
	if lineFor(lines, 5) != 0 || lineFor(lines, 6) != 1 || lineFor(lines, 8) != 1 {
		t.Fatalf("unexpected line lookup")
	}
}

func TestWrapRunesHardBreaksLongWord(t *testing.T) {
	lines := wrapRunes(typingRunes([]rune("abcdef"), nil), 4)
	if len(lines) != 2 || lines[0].end != 4 || lines[1].start != 4 {
		t.Fatalf("unexpected ranges %+v", lines)
	}
}

func TestWrapRunesWideRunes(t *testing.T) {
	lines := wrapRunes(typingRunes([]rune("日本 語"), nil), 4)
	if len(lines) != 2 || lines[1].start != 3 {
		t.Fatalf("unexpected ranges %+v", lines)
	}
}

func TestWrapRunesNoWidth(t *testing.T) {
	lines := wrapRunes(typingRunes([]rune("ab cd"), nil), 0)
	if len(lines) != 1 || lines[0].end != 5 {
		t.Fatalf("expected one line, got %+v", lines)
	}
	if wrapRunes(nil, 10) != nil {
		t.Fatalf("expected no lines for empty input")
	}
}

func TestVisibleLinesFollowsCursor(t *testing.T) {
	lines := make([]wrappedLine, 10)
	for i := range lines {
		lines[i] = wrappedLine{start: i, end: i + 1}
	}
	if got := visibleLines(lines, 0, 3); got[0].start != 0 {
		t.Fatalf("expected top window, got %+v", got)
	}
	if got := visibleLines(lines, 5, 3); len(got) != 3 || got[0].start != 4 {
		t.Fatalf("expected window from 4, got %+v", got)
	}
	if got := visibleLines(lines, 9, 3); got[0].start != 7 {
		t.Fatalf("expected bottom window, got %+v", got)
	}
	if got := visibleLines(lines, 9, 0); len(got) != 10 {
		t.Fatalf("expected all lines without height")
	}
}
