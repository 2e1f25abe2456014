package presence

import "time"

// oneYearMs shifts a paused window far enough ahead that Discord renders the
// progress bar as frozen instead of counting.
const oneYearMs int64 = 365 * 24 * 60 * 60 * 1000

// playingTimestamps anchors the track so that it started currentMs ago and
// ends after the remaining time. A zero pair means the position is past the
// end and the update should be skipped.
func playingTimestamps(currentMs, durationMs float64, now time.Time) (start, end int64) {
	if currentMs >= durationMs {
		return 0, 0
	}

	nowMs := now.UnixMilli()
	cur := int64(currentMs)
	remaining := max(int64(durationMs)-cur, 0)

	end = (nowMs + remaining) / 1000
	start = (nowMs - cur) / 1000
	return start, end
}

// pausedTimestamps builds the same window as playingTimestamps but one year in
// the future. Milliseconds are summed before the division to seconds; changing
// that order moves the frozen position by up to a second.
func pausedTimestamps(currentMs, durationMs float64, now time.Time) (start, end int64) {
	futureStart := (now.UnixMilli() - int64(currentMs)) + oneYearMs
	futureEnd := futureStart + int64(durationMs)
	return futureStart / 1000, futureEnd / 1000
}
