package registry

import "sync"

// OneUnit is the number of base units in one whole asset unit. All amounts
// in the registry are base units.
const OneUnit uint64 = 1_000_000_000

// Bounds enforced on admin parameter changes. Out-of-range values are
// rejected outright, never clamped.
const (
	MinTTLSeconds      int64 = 3600          // 1 hour
	MaxTTLSeconds      int64 = 30 * 86400    // 30 days
	MaxMinSignalAmount       = 1000 * OneUnit // 1000 whole units
)

// Defaults applied when no persisted parameters exist yet.
const (
	DefaultTTLSeconds      int64 = 86400 // 24 hours
	DefaultMinSignalAmount       = OneUnit / 100
)

// Params is the single global protocol configuration: the liveness window,
// the minimum pulse amount, the pause flag, and the administrator address.
// It is passed by handle to every component that consults it; mutation is
// restricted to the administrator.
type Params struct {
	mu              sync.RWMutex
	ttlSeconds      int64
	minSignalAmount uint64
	paused          bool
	administrator   string
}

// NewParams creates parameters with the given administrator and defaults.
func NewParams(administrator string) *Params {
	return &Params{
		ttlSeconds:      DefaultTTLSeconds,
		minSignalAmount: DefaultMinSignalAmount,
		administrator:   administrator,
	}
}

// RestoreParams reconstructs parameters from persisted state without bounds
// checks; persisted values were validated when they were set.
func RestoreParams(administrator string, ttlSeconds int64, minSignalAmount uint64, paused bool) *Params {
	return &Params{
		ttlSeconds:      ttlSeconds,
		minSignalAmount: minSignalAmount,
		paused:          paused,
		administrator:   administrator,
	}
}

// TTLSeconds returns the liveness window in seconds.
func (p *Params) TTLSeconds() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ttlSeconds
}

// MinSignalAmount returns the minimum accepted pulse amount in base units.
func (p *Params) MinSignalAmount() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.minSignalAmount
}

// Paused reports whether signaling is paused.
func (p *Params) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

// Administrator returns the administrator address.
func (p *Params) Administrator() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.administrator
}

// SetTTL updates the liveness window. Fails with *InvalidTTLError outside
// [1h, 30d] and ErrNotAdministrator for any other caller.
func (p *Params) SetTTL(caller string, seconds int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.administrator {
		return ErrNotAdministrator
	}
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return &InvalidTTLError{Value: seconds}
	}
	p.ttlSeconds = seconds
	return nil
}

// SetMinSignalAmount updates the minimum pulse amount. Fails with
// *InvalidMinAmountError outside (0, 1000 whole units].
func (p *Params) SetMinSignalAmount(caller string, amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.administrator {
		return ErrNotAdministrator
	}
	if amount == 0 || amount > MaxMinSignalAmount {
		return &InvalidMinAmountError{Value: amount}
	}
	p.minSignalAmount = amount
	return nil
}

// Pause stops the signal processor. Staking and all reads are unaffected.
func (p *Params) Pause(caller string) error {
	return p.setPaused(caller, true)
}

// Unpause resumes the signal processor.
func (p *Params) Unpause(caller string) error {
	return p.setPaused(caller, false)
}

func (p *Params) setPaused(caller string, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.administrator {
		return ErrNotAdministrator
	}
	p.paused = paused
	return nil
}
