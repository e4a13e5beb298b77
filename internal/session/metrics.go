package session

import (
	"math"
	"time"
)

// WPM is words typed per elapsed minute, rounded. Zero until a full second
// has elapsed.
func WPM(wordsTyped, elapsedSeconds int) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return int(math.Round(float64(wordsTyped) / (float64(elapsedSeconds) / 60)))
}

// Accuracy is the share of forward keystrokes that matched, as a percentage.
// It is 100 before anything has been typed.
func Accuracy(charactersTyped, errorCount int) float64 {
	if charactersTyped <= 0 {
		return 100
	}
	return float64(charactersTyped-errorCount) / float64(charactersTyped) * 100
}

// elapsedSeconds floors the duration between started and now to whole seconds.
func elapsedSeconds(started, now time.Time) int {
	d := now.Sub(started)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
