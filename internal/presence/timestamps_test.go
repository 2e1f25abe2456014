package presence

import (
	"testing"
	"time"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func TestPlayingTimestamps(t *testing.T) {
	tests := []struct {
		name      string
		currentMs float64
		duration  float64
		now       time.Time
		wantStart int64
		wantEnd   int64
	}{
		{
			name:      "Start of track",
			currentMs: 0,
			duration:  180_000,
			now:       testNow,
			wantStart: 1_700_000_000,
			wantEnd:   1_700_000_180,
		},
		{
			name:      "Mid track",
			currentMs: 60_000,
			duration:  180_000,
			now:       testNow,
			wantStart: 1_699_999_940,
			wantEnd:   1_700_000_120,
		},
		{
			name:      "Sub-second now is floored",
			currentMs: 500,
			duration:  10_000,
			now:       time.UnixMilli(1_700_000_000_700),
			wantStart: 1_700_000_000,
			wantEnd:   1_700_000_010,
		},
		{
			name:      "Sentinel - Position Equals Duration",
			currentMs: 180_000,
			duration:  180_000,
			now:       testNow,
		},
		{
			name:      "Sentinel - Position Past Duration",
			currentMs: 200_000,
			duration:  180_000,
			now:       testNow,
		},
		{
			name:      "Sentinel - Zero Duration",
			currentMs: 0,
			duration:  0,
			now:       testNow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := playingTimestamps(tt.currentMs, tt.duration, tt.now)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("expected (%d, %d), got (%d, %d)", tt.wantStart, tt.wantEnd, start, end)
			}
		})
	}
}

// TestPlayingTimestamps_WindowWidth checks that the window always spans the
// track length, give or take the rounding of both ends.
func TestPlayingTimestamps_WindowWidth(t *testing.T) {
	durations := []float64{1_000, 1_500, 61_234, 180_000, 3_599_999}

	for _, duration := range durations {
		wantWidth := int64(duration/1000 + 0.5)
		for cur := 0.0; cur < duration; cur += duration / 7 {
			for _, offset := range []int64{0, 1, 499, 999} {
				now := testNow.Add(time.Duration(offset) * time.Millisecond)
				start, end := playingTimestamps(cur, duration, now)
				width := end - start
				if width < wantWidth-1 || width > wantWidth+1 {
					t.Errorf("duration=%v cur=%v offset=%d: width %d, want %d±1", duration, cur, offset, width, wantWidth)
				}
			}
		}
	}
}

func TestPausedTimestamps(t *testing.T) {
	const yearS = 365 * 24 * 60 * 60
	nowS := testNow.Unix()

	start, end := pausedTimestamps(30_000, 180_000, testNow)

	if start < nowS+364*24*60*60 {
		t.Errorf("paused start %d is not at least 364 days ahead of %d", start, nowS)
	}
	if want := nowS - 30 + yearS; start != want {
		t.Errorf("start: expected %d, got %d", want, start)
	}
	if end-start != 180 {
		t.Errorf("window width: expected 180, got %d", end-start)
	}
}

// TestPausedTimestamps_TruncationOrder pins the order of operations: the end
// is computed in milliseconds and only then divided.
func TestPausedTimestamps_TruncationOrder(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_999)

	start, end := pausedTimestamps(0, 1_500, now)

	wantStart := (now.UnixMilli() + oneYearMs) / 1000
	if start != wantStart {
		t.Fatalf("start: expected %d, got %d", wantStart, start)
	}
	// 999ms + 1500ms crosses two second boundaries
	if end-start != 2 {
		t.Errorf("expected end-start == 2, got %d", end-start)
	}
}

func TestPausedTimestamps_SubSecondCarry(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_500)

	start, end := pausedTimestamps(0, 1_999, now)

	// 500ms + 1999ms carries into a second whole second
	if end-start != 2 {
		t.Errorf("expected end-start == 2, got %d", end-start)
	}
}
