package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// typingRunes styles the window text against what has been typed so far. The
// rune under the cursor is underlined while input is incomplete.
func typingRunes(target, typed []rune) []styledRune {
	cursor := -1
	if len(typed) < len(target) {
		cursor = len(typed)
	}
	current := wordForCursor(findWords(target), cursor)

	out := make([]styledRune, 0, len(target))
	for i, want := range target {
		displayed := want
		style := pendingStyle
		switch {
		case i < len(typed):
			switch {
			case want == ' ' && typed[i] != ' ':
				displayed = '•'
				style = incorrectStyle
			case typed[i] == want:
				style = correctStyle
			default:
				style = incorrectStyle
			}
		case want != ' ' && current != nil && i >= current.start && i < current.end:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: want == ' ',
		})
	}
	return out
}

// previewRunes lays out preview words separated by single spaces, styling
// each word with styleFor(index).
func previewRunes(ws []string, styleFor func(int) lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(ws)*6)
	space := pendingStyle.Render(" ")
	for i, w := range ws {
		if i > 0 {
			out = append(out, styledRune{s: space, width: 1, isSpace: true})
		}
		style := styleFor(i)
		for _, r := range w {
			out = append(out, styledRune{
				s:     style.Render(string(r)),
				width: runewidth.RuneWidth(r),
			})
		}
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func findWords(target []rune) []wordRange {
	ranges := []wordRange{}
	start := -1
	for i, r := range target {
		if r == ' ' {
			if start != -1 {
				ranges = append(ranges, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		ranges = append(ranges, wordRange{start: start, end: len(target)})
	}
	return ranges
}

func wordForCursor(ranges []wordRange, cursor int) *wordRange {
	if len(ranges) == 0 || cursor < 0 {
		return nil
	}
	for i, w := range ranges {
		if cursor < w.end {
			return &ranges[i]
		}
	}
	return &ranges[len(ranges)-1]
}

// wrappedLine is one display line. start and end are rune indexes into the
// source, end exclusive; a break space belongs to the line it ends.
type wrappedLine struct {
	text  string
	start int
	end   int
}

func wrapRunes(runes []styledRune, width int) []wrappedLine {
	if len(runes) == 0 {
		return nil
	}
	if width <= 0 {
		return []wrappedLine{{text: renderRunes(runes), start: 0, end: len(runes)}}
	}
	var lines []wrappedLine
	lineStart := 0
	lineWidth := 0
	lastSpace := -1
	for i := 0; i < len(runes); i++ {
		item := runes[i]
		if lineWidth+item.width > width && i > lineStart {
			if item.isSpace {
				lines = append(lines, wrappedLine{text: renderRunes(runes[lineStart:i]), start: lineStart, end: i + 1})
				lineStart = i + 1
				lineWidth = 0
				lastSpace = -1
				continue
			}
			if lastSpace >= lineStart {
				lines = append(lines, wrappedLine{text: renderRunes(runes[lineStart:lastSpace]), start: lineStart, end: lastSpace + 1})
				lineStart = lastSpace + 1
			} else {
				lines = append(lines, wrappedLine{text: renderRunes(runes[lineStart:i]), start: lineStart, end: i})
				lineStart = i
			}
			lastSpace = -1
			lineWidth = widthOf(runes[lineStart:i])
			i--
			continue
		}
		lineWidth += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return append(lines, wrappedLine{text: renderRunes(runes[lineStart:]), start: lineStart, end: len(runes)})
}

// lineFor returns the line holding rune index idx. Indexes past the end map
// to the last line.
func lineFor(lines []wrappedLine, idx int) int {
	for i, l := range lines {
		if idx < l.end {
			return i
		}
	}
	return max(0, len(lines)-1)
}

// visibleLines keeps the cursor line in view, one third from the top once the
// text no longer fits.
func visibleLines(lines []wrappedLine, cursorLine, height int) []wrappedLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	first := max(0, cursorLine-height/3)
	if first+height > len(lines) {
		first = len(lines) - height
	}
	return lines[first : first+height]
}

func joinLines(lines []wrappedLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}
	return strings.Join(parts, "\n")
}

func renderRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func widthOf(runes []styledRune) int {
	total := 0
	for _, item := range runes {
		total += item.width
	}
	return total
}
