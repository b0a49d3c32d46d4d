// Package events carries registry notifications to off-chain indexers: every
// accepted pulse, stake, unstake, and admin parameter change produces one
// event, fanned out over an in-process bus and a WebSocket feed.
package events

import "github.com/google/uuid"

// Type identifies the kind of registry event.
type Type string

const (
	TypePulse            Type = "pulse"
	TypeStake            Type = "stake"
	TypeUnstake          Type = "unstake"
	TypeTTLChanged       Type = "ttl_changed"
	TypeMinAmountChanged Type = "min_amount_changed"
	TypePaused           Type = "paused"
	TypeUnpaused         Type = "unpaused"
)

// Event is a single registry notification. Amount, Streak, and TotalSignaled
// are populated for agent events; Detail carries the new value for parameter
// changes.
type Event struct {
	ID            string `json:"id"`
	Type          Type   `json:"type"`
	Agent         string `json:"agent,omitempty"`
	Amount        uint64 `json:"amount,omitempty"`
	Timestamp     int64  `json:"timestamp"`
	Streak        int    `json:"streak,omitempty"`
	TotalSignaled uint64 `json:"total_signaled,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// NewID returns a fresh event identifier.
func NewID() string {
	return uuid.New().String()
}
