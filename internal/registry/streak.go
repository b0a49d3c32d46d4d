package registry

const secondsPerDay int64 = 86400

// MinStreakGap is the smallest elapsed time between two pulses on adjacent
// calendar days that still advances the streak. Without it an agent could
// pulse just before and just after midnight and bank two streak days in
// minutes. The bound is inclusive: a gap of exactly 20h counts.
const MinStreakGap int64 = 20 * 3600

func dayOf(t int64) int64 {
	return t / secondsPerDay
}

// NextStreak computes the streak after a pulse at now, given the previous
// accepted pulse time and streak. It is a pure function:
//
//   - first pulse ever: 1
//   - same calendar day: unchanged (re-pulsing is idempotent)
//   - next calendar day with gap >= MinStreakGap: +1
//   - next calendar day with gap < MinStreakGap: unchanged
//   - two or more days later: reset to 1
func NextStreak(prevLastSignalAt int64, prevStreak int, now int64) int {
	if prevLastSignalAt == 0 {
		return 1
	}

	dayDiff := dayOf(now) - dayOf(prevLastSignalAt)
	switch {
	case dayDiff == 0:
		return prevStreak
	case dayDiff == 1:
		if now-prevLastSignalAt >= MinStreakGap {
			return prevStreak + 1
		}
		return prevStreak
	default:
		return 1
	}
}
