package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/speedtype/internal/model"
	statsPkg "github.com/verte-zerg/speedtype/internal/stats"
)

func TestRenderFooterFormats(t *testing.T) {
	h := newHarness(t, "abcd efgh")
	h.selectPassage(t)
	h.key(t, "enter")
	h.typeText(t, "abcd")

	h.m.last = &model.StoredResult{TestResult: model.TestResult{WPM: 72, AccuracyPercent: 97.8}}
	h.m.dashboard = statsPkg.Dashboard{Tests: 4, AverageWPM: 68, AverageAccuracy: 96.9}
	out := h.m.renderFooter()
	if !containsAll(out, []string{"Progress 44%", "0 WPM", "0:00", "esc stop", "Last 72 WPM · 97.8%", "Recent avg 68 WPM · 96.90%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterEmptyOutsideTest(t *testing.T) {
	h := newHarness(t, "abcd")
	if out := h.m.renderFooter(); out != "" {
		t.Fatalf("expected empty footer, got %q", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
