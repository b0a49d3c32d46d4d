// Package registry implements the heartbeat liveness registry: per-agent
// pulse records, the consecutive-day streak classifier, the bounded
// reliability score, and the time-locked staking pool.
package registry

// Record is the persistent per-agent state. Records are created lazily on an
// agent's first pulse or stake and never deleted; a lapsed agent's score
// decays to zero while its history stays queryable.
type Record struct {
	Address string

	// LastSignalAt is the Unix time of the most recent accepted pulse;
	// zero means the agent has never pulsed.
	LastSignalAt int64

	// Streak counts qualifying consecutive daily pulses. It is zero exactly
	// when LastSignalAt is zero.
	Streak int

	// TotalSignaled is the cumulative pulsed amount in base units. It only
	// ever increases.
	TotalSignaled uint64

	StakedAmount uint64

	// StakeUnlockAt is the Unix time before which the stake cannot be
	// withdrawn. Meaningless while StakedAmount is zero.
	StakeUnlockAt int64

	// StakeStartedAt is the reference time for stake-duration scoring.
	// Every stake call resets it, top-ups included.
	StakeStartedAt int64
}

// AliveAt reports whether the agent's liveness window covers now. An agent
// that never pulsed is never alive.
func (r *Record) AliveAt(ttlSeconds, now int64) bool {
	if r == nil || r.LastSignalAt == 0 {
		return false
	}
	return now <= r.LastSignalAt+ttlSeconds
}

// Status is the read-only liveness snapshot served to external consumers.
type Status struct {
	Address       string `json:"address"`
	Alive         bool   `json:"alive"`
	LastSignalAt  int64  `json:"lastPulse"`
	Streak        int    `json:"streak"`
	TotalSignaled uint64 `json:"totalPulsed"`
}
