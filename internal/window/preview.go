package window

// ScrollForward advances the preview offset by step, never past the point
// where the last preview page starts.
func ScrollForward(offset, total, size, step int) int {
	maxOffset := max(0, total-size)
	return min(offset+step, maxOffset)
}

// ScrollBackward retreats the preview offset by step, stopping at 0.
func ScrollBackward(offset, step int) int {
	return max(0, offset-step)
}

// StartFromClick maps an index inside the visible preview slice to an
// absolute start index such that a window of count words fits in total.
func StartFromClick(offset, relative, total, count int) int {
	abs := max(0, offset+relative)
	maxStart := max(0, total-ClampCount(count))
	return min(abs, maxStart)
}

// Slice returns the preview page starting at offset.
func Slice(all []string, offset, size int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || size <= 0 {
		return nil
	}
	end := min(offset+size, len(all))
	return all[offset:end]
}
