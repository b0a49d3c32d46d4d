package registry

import (
	"math"
	"math/bits"
)

// Score component caps. The total never exceeds 100, which also keeps every
// intermediate value far from integer overflow.
const (
	MaxStreakScore = 50
	MaxVolumeScore = 30
	MaxStakeScore  = 20
)

// Tier is the coarse access classification derived from the score.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPro     Tier = "pro"
	TierPartner Tier = "partner"
)

// Score thresholds for tiers.
const (
	proThreshold     = 40
	partnerThreshold = 70
)

// Score derives the bounded 0-100 reliability score for a record at now.
// A lapsed or never-pulsed agent scores zero regardless of stake or volume.
// All divisions and logarithms truncate.
func Score(rec *Record, ttlSeconds, now int64) int {
	if !rec.AliveAt(ttlSeconds, now) {
		return 0
	}

	streakScore := rec.Streak
	if streakScore > MaxStreakScore {
		streakScore = MaxStreakScore
	}

	volumeUnits := rec.TotalSignaled / OneUnit
	volumeScore := log2Floor(volumeUnits + 1)
	if volumeScore > MaxVolumeScore {
		volumeScore = MaxVolumeScore
	}

	return streakScore + volumeScore + stakeScore(rec, now)
}

// stakeScore is floor(log2(stakeUnits*durationDays + 1)) capped at
// MaxStakeScore. A stake made this instant contributes zero.
func stakeScore(rec *Record, now int64) int {
	stakeUnits := rec.StakedAmount / OneUnit
	if stakeUnits == 0 || rec.StakeStartedAt == 0 || now < rec.StakeStartedAt {
		return 0
	}

	days := uint64((now - rec.StakeStartedAt) / secondsPerDay)
	if days > 0 && stakeUnits > (math.MaxUint64-1)/days {
		// Product would wrap; it is far beyond the cap anyway.
		return MaxStakeScore
	}

	score := log2Floor(stakeUnits*days + 1)
	if score > MaxStakeScore {
		score = MaxStakeScore
	}
	return score
}

// log2Floor returns floor(log2(x)) for x >= 1 and 0 for x == 0.
func log2Floor(x uint64) int {
	if x == 0 {
		return 0
	}
	return bits.Len64(x) - 1
}

// TierForScore maps a score to its tier. A dead agent scores zero and thus
// lands in Basic.
func TierForScore(score int) Tier {
	switch {
	case score >= partnerThreshold:
		return TierPartner
	case score >= proThreshold:
		return TierPro
	default:
		return TierBasic
	}
}
