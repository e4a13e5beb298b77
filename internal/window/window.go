// Package window derives word windows from passages and navigates the preview.
package window

import "github.com/verte-zerg/speedtype/internal/words"

// Defaults used when configuration leaves a value unset.
const (
	DefaultCount       = 50
	DefaultPreviewSize = 150
	DefaultPreviewStep = 50
)

// Window is the contiguous slice of a passage's words chosen for one attempt.
type Window struct {
	Words      []string
	StartIndex int
	Count      int
	TotalWords int
}

// New derives a window over all. count is clamped to at least 1. A negative
// start becomes 0 and a start at or past the end is pulled back so the window
// ends on the last word.
func New(all []string, start, count int) Window {
	count = ClampCount(count)
	start = ClampStart(start, len(all), count)
	end := start + count
	if end > len(all) {
		end = len(all)
	}
	ws := make([]string, end-start)
	copy(ws, all[start:end])
	return Window{
		Words:      ws,
		StartIndex: start,
		Count:      count,
		TotalWords: len(all),
	}
}

// ClampCount enforces count >= 1.
func ClampCount(count int) int {
	if count < 1 {
		return 1
	}
	return count
}

// ClampStart keeps start within [0, total].
func ClampStart(start, total, count int) int {
	if start < 0 {
		return 0
	}
	if start >= total {
		return max(0, total-count)
	}
	return start
}

// Len is the number of words actually in the window.
func (w Window) Len() int {
	return len(w.Words)
}

// Text joins the window into the target text.
func (w Window) Text() string {
	return words.Join(w.Words)
}

// Equal reports whether two windows cover the same words.
func (w Window) Equal(o Window) bool {
	if w.StartIndex != o.StartIndex || w.Count != o.Count || w.TotalWords != o.TotalWords || len(w.Words) != len(o.Words) {
		return false
	}
	for i := range w.Words {
		if w.Words[i] != o.Words[i] {
			return false
		}
	}
	return true
}
