package window

import (
	"fmt"
	"testing"
)

func makeWords(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%d", i)
	}
	return out
}

func TestNewWindowLength(t *testing.T) {
	all := makeWords(10)
	w := New(all, 8, 5)
	if w.StartIndex != 8 || w.Len() != 2 {
		t.Fatalf("expected start 8 and 2 words, got start %d len %d", w.StartIndex, w.Len())
	}
	if w.TotalWords != 10 || w.Count != 5 {
		t.Fatalf("unexpected totals: %+v", w)
	}
	if w.Text() != "w8 w9" {
		t.Fatalf("unexpected text %q", w.Text())
	}
}

func TestNewWindowClamps(t *testing.T) {
	all := makeWords(10)
	w := New(all, -3, 0)
	if w.StartIndex != 0 || w.Count != 1 || w.Len() != 1 {
		t.Fatalf("expected clamped window, got %+v", w)
	}
	w = New(all, 10, 4)
	if w.StartIndex != 6 || w.Len() != 4 {
		t.Fatalf("expected start pulled back to 6, got %+v", w)
	}
	w = New(all, 25, 50)
	if w.StartIndex != 0 || w.Len() != 10 {
		t.Fatalf("expected whole passage, got %+v", w)
	}
}

func TestNewWindowEmptyPassage(t *testing.T) {
	w := New(nil, 3, 5)
	if w.StartIndex != 0 || w.Len() != 0 || w.Text() != "" {
		t.Fatalf("expected empty window, got %+v", w)
	}
}

func TestNewWindowIdempotent(t *testing.T) {
	all := makeWords(40)
	a := New(all, 12, 7)
	b := New(all, a.StartIndex, a.Count)
	if !a.Equal(b) {
		t.Fatalf("expected identical windows: %+v vs %+v", a, b)
	}
}

func TestNewWindowCopiesWords(t *testing.T) {
	all := makeWords(5)
	w := New(all, 0, 5)
	all[0] = "changed"
	if w.Words[0] != "w0" {
		t.Fatalf("window shares backing array with passage words")
	}
}

func TestScrollRoundTrip(t *testing.T) {
	offset := 100
	fwd := ScrollForward(offset, 1000, DefaultPreviewSize, DefaultPreviewStep)
	if fwd != 150 {
		t.Fatalf("expected 150, got %d", fwd)
	}
	if back := ScrollBackward(fwd, DefaultPreviewStep); back != offset {
		t.Fatalf("expected round trip to %d, got %d", offset, back)
	}
}

func TestScrollClampsAtEdges(t *testing.T) {
	if got := ScrollForward(0, 100, 150, 50); got != 0 {
		t.Fatalf("short passage should not scroll, got %d", got)
	}
	if got := ScrollForward(140, 200, 150, 50); got != 50 {
		t.Fatalf("expected clamp to 50, got %d", got)
	}
	if got := ScrollBackward(20, 50); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestStartFromClick(t *testing.T) {
	if got := StartFromClick(50, 10, 1000, 50); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
	if got := StartFromClick(150, 120, 300, 50); got != 250 {
		t.Fatalf("expected clamp to 250, got %d", got)
	}
	if got := StartFromClick(0, 5, 20, 50); got != 0 {
		t.Fatalf("expected 0 when window exceeds passage, got %d", got)
	}
}

func TestSlice(t *testing.T) {
	all := makeWords(10)
	if got := Slice(all, 8, 5); len(got) != 2 {
		t.Fatalf("expected 2 preview words, got %d", len(got))
	}
	if got := Slice(all, 12, 5); got != nil {
		t.Fatalf("expected nil past end, got %v", got)
	}
}
