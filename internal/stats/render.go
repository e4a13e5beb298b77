package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/speedtype/internal/model"
)

const (
	titleWidth        = 32
	minSparklineWidth = 10
	sparklineLabel    = "WPM trend: "
)

// RenderSummary prints totals and averages for results.
func RenderSummary(w io.Writer, results []model.StoredResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	sum := Summarize(testResults(results))
	partial := 0
	for _, r := range results {
		if r.IsPartial {
			partial++
		}
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests: %d (%d stopped early)", sum.Tests, partial),
		fmt.Sprintf("Avg WPM: %.2f", sum.AverageWPM),
		fmt.Sprintf("Best WPM: %d", sum.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", sum.AverageAccuracy),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderDashboard prints the rounded recent-results summary.
func RenderDashboard(w io.Writer, d Dashboard) error {
	if d.Tests == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Last %d tests: %d WPM avg, %.2f%% accuracy avg, best %d WPM\n\n",
		d.Tests, d.AverageWPM, d.AverageAccuracy, d.BestWPM)
	return err
}

// RenderCurve prints a moving-average WPM sparkline fitted to totalWidth.
func RenderCurve(w io.Writer, results []model.StoredResult, window, totalWidth int) error {
	if len(results) == 0 {
		return nil
	}
	wpms := make([]float64, len(results))
	for i, r := range results {
		wpms[i] = float64(r.WPM)
	}
	wpms = MovingAverage(wpms, window)
	width := 0
	if totalWidth > 0 {
		width = max(totalWidth-len(sparklineLabel), minSparklineWidth)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n\n", sparklineLabel, Sparkline(Downsample(wpms, width))); err != nil {
		return err
	}
	return nil
}

// RenderResults prints results as a table, oldest first.
func RenderResults(w io.Writer, results []model.StoredResult) error {
	if len(results) == 0 {
		return nil
	}
	headers := []string{"Date", "Passage", "WPM", "Accuracy", "Errors", "Time", "Words", "Partial"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		partial := ""
		if r.IsPartial {
			partial = "yes"
		}
		rows = append(rows, []string{
			r.Date.Local().Format("2006-01-02 15:04"),
			truncate(r.Title, titleWidth),
			strconv.Itoa(r.WPM),
			fmt.Sprintf("%.2f%%", r.AccuracyPercent),
			strconv.Itoa(r.ErrorCount),
			fmt.Sprintf("%ds", r.ElapsedSeconds),
			fmt.Sprintf("%d/%d", r.WordIndexReached, r.TotalWordsInWindow),
			partial,
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}))
}

// RenderLeaderboard prints ranked entries.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No results yet.")
		return err
	}
	headers := []string{"Rank", "User", "Best WPM", "Best Acc", "Tests", "Avg WPM", "Avg Acc"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.UserName,
			strconv.Itoa(e.BestWPM),
			fmt.Sprintf("%.2f%%", e.BestAccuracy),
			strconv.Itoa(e.TestCount),
			fmt.Sprintf("%.1f", e.AverageWPM),
			fmt.Sprintf("%.2f%%", e.AverageAccuracy),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true, 6: true}))
}

// RenderPassages prints passage summaries.
func RenderPassages(w io.Writer, passages []model.PassageSummary) error {
	if len(passages) == 0 {
		_, err := fmt.Fprintln(w, "No passages found.")
		return err
	}
	headers := []string{"ID", "Title", "Author", "Words", "Best", "Visibility"}
	rows := make([][]string, 0, len(passages))
	for _, p := range passages {
		visibility := "private"
		if p.IsPublic {
			visibility = "public"
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			truncate(p.Title, titleWidth),
			truncate(p.Author, titleWidth),
			strconv.Itoa(p.WordCount),
			strconv.Itoa(p.PersonalBest),
			visibility,
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 3: true, 4: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
