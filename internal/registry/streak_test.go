package registry

import "testing"

// day returns the Unix time for day d at offset seconds past midnight.
func day(d int64, offset int64) int64 {
	return d*secondsPerDay + offset
}

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name       string
		prevLast   int64
		prevStreak int
		now        int64
		want       int
	}{
		{"first pulse ever", 0, 0, day(100, 3600), 1},
		{"same day is idempotent", day(100, 3600), 4, day(100, 80000), 4},
		{"same instant is idempotent", day(100, 3600), 4, day(100, 3600), 4},
		{"next day with full gap", day(100, 3600), 4, day(101, 3600), 5},
		{"next day gap exactly 20h", day(100, 14400), 4, day(100, 14400) + MinStreakGap, 5},
		{"next day gap one second under 20h", day(100, 80000), 4, day(100, 80000) + MinStreakGap - 1, 4},
		{"midnight straddle blocked", day(100, 86000), 4, day(101, 400), 4},
		{"two days later resets", day(100, 3600), 9, day(102, 3600), 1},
		{"week later resets", day(100, 3600), 30, day(107, 3600), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStreak(tt.prevLast, tt.prevStreak, tt.now)
			if got != tt.want {
				t.Errorf("NextStreak(%d, %d, %d) = %d, want %d",
					tt.prevLast, tt.prevStreak, tt.now, got, tt.want)
			}
		})
	}
}

func TestNextStreakGapBoundIsInclusive(t *testing.T) {
	// A pulse at 06:00 followed by one at 02:00 the next day: dayDiff 1,
	// gap exactly MinStreakGap. The inclusive bound must count it.
	prev := day(50, 6*3600)
	now := prev + MinStreakGap
	if dayOf(now)-dayOf(prev) != 1 {
		t.Fatal("fixture does not cross exactly one day boundary")
	}
	if got := NextStreak(prev, 1, now); got != 2 {
		t.Errorf("streak at exact 20h gap = %d, want 2", got)
	}
	if got := NextStreak(prev, 1, now-1); got != 1 {
		t.Errorf("streak one second under the gap = %d, want 1", got)
	}
}
