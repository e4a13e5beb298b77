// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SortBy selects the leaderboard ordering.
type SortBy string

const (
	SortByWPM      SortBy = "wpm"
	SortByAccuracy SortBy = "accuracy"
)

// Dashboard is a rounded summary of a user's recent results.
type Dashboard struct {
	Tests           int
	AverageWPM      int
	AverageAccuracy float64
	BestWPM         int
}

// Summarize reduces results to totals, best and averages.
func Summarize(results []model.TestResult) model.UserStats {
	var out model.UserStats
	if len(results) == 0 {
		return out
	}
	var wpmSum, accSum float64
	for _, r := range results {
		wpmSum += float64(r.WPM)
		accSum += r.AccuracyPercent
		if r.WPM > out.BestWPM {
			out.BestWPM = r.WPM
		}
	}
	out.Tests = len(results)
	out.AverageWPM = wpmSum / float64(len(results))
	out.AverageAccuracy = accSum / float64(len(results))
	return out
}

// BuildDashboard summarizes the n most recent results. results must be in
// chronological order; n <= 0 uses all of them.
func BuildDashboard(results []model.StoredResult, n int) Dashboard {
	if n > 0 && len(results) > n {
		results = results[len(results)-n:]
	}
	sum := Summarize(testResults(results))
	return Dashboard{
		Tests:           sum.Tests,
		AverageWPM:      int(math.Round(sum.AverageWPM)),
		AverageAccuracy: round2(sum.AverageAccuracy),
		BestWPM:         sum.BestWPM,
	}
}

// Leaderboard groups results by user and ranks the users from 1.
func Leaderboard(results []model.StoredResult, by SortBy) []model.LeaderboardEntry {
	type acc struct {
		entry  model.LeaderboardEntry
		wpmSum float64
		accSum float64
	}
	byUser := map[int64]*acc{}
	var order []int64
	for _, r := range results {
		a, ok := byUser[r.UserID]
		if !ok {
			a = &acc{entry: model.LeaderboardEntry{UserID: r.UserID, UserName: r.UserName}}
			byUser[r.UserID] = a
			order = append(order, r.UserID)
		}
		a.entry.TestCount++
		a.entry.BestWPM = max(a.entry.BestWPM, r.WPM)
		a.entry.BestAccuracy = math.Max(a.entry.BestAccuracy, r.AccuracyPercent)
		a.wpmSum += float64(r.WPM)
		a.accSum += r.AccuracyPercent
	}

	entries := make([]model.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		a := byUser[id]
		n := float64(a.entry.TestCount)
		a.entry.AverageWPM = a.wpmSum / n
		a.entry.AverageAccuracy = a.accSum / n
		entries = append(entries, a.entry)
	}
	SortLeaderboard(entries, by)
	return entries
}

// SortLeaderboard orders entries in place and reassigns ranks.
func SortLeaderboard(entries []model.LeaderboardEntry, by SortBy) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if by == SortByAccuracy {
			if a.BestAccuracy != b.BestAccuracy {
				return a.BestAccuracy > b.BestAccuracy
			}
			if a.BestWPM != b.BestWPM {
				return a.BestWPM > b.BestWPM
			}
		} else {
			if a.BestWPM != b.BestWPM {
				return a.BestWPM > b.BestWPM
			}
			if a.BestAccuracy != b.BestAccuracy {
				return a.BestAccuracy > b.BestAccuracy
			}
		}
		return a.UserName < b.UserName
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// UserRank returns the user's rank, or 0 when absent.
func UserRank(entries []model.LeaderboardEntry, userID int64) int {
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Downsample averages values into at most width buckets.
func Downsample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := range out {
		lo := i * len(values) / width
		hi := (i + 1) * len(values) / width
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func testResults(results []model.StoredResult) []model.TestResult {
	out := make([]model.TestResult, len(results))
	for i, r := range results {
		out[i] = r.TestResult
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
