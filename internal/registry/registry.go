package registry

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/agent-pulse/pulsed/internal/events"
	"github.com/agent-pulse/pulsed/internal/ledger"
)

// StakeLockupSeconds is the rolling lockup applied on every stake call.
const StakeLockupSeconds int64 = 7 * 86400

// VerifiedStreak is the streak an alive agent must exceed to count as
// verified.
const VerifiedStreak = 7

// Emitter receives one event per accepted state change. A nil Emitter
// disables notifications.
type Emitter interface {
	Publish(e events.Event)
}

// Registry is the liveness registry. State-changing calls serialize under a
// single lock: per-agent updates are O(1), so one lock stands in for the
// total ordering a ledger would provide. Reads take the read lock and are
// always available, paused or not.
type Registry struct {
	mu     sync.RWMutex
	params *Params
	store  RecordStore
	assets ledger.Ledger
	bus    Emitter

	// now is the clock; tests substitute a fixed one.
	now func() int64
}

// Stats summarizes the registry for operational logging.
type Stats struct {
	Agents      int
	Alive       int
	TotalStaked uint64
}

// New creates a registry over the given parameters, record store, and asset
// ledger. bus may be nil.
func New(params *Params, store RecordStore, assets ledger.Ledger, bus Emitter) *Registry {
	return &Registry{
		params: params,
		store:  store,
		assets: assets,
		bus:    bus,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// Params returns the protocol parameter handle.
func (r *Registry) Params() *Params {
	return r.params
}

// getOrDefault loads the record for address, constructing a zero-valued one
// if the agent has never been seen.
func (r *Registry) getOrDefault(address string) (*Record, error) {
	rec, err := r.store.Get(address)
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", address, err)
	}
	if rec == nil {
		rec = &Record{Address: address}
	}
	return rec, nil
}

func (r *Registry) emit(e events.Event) {
	if r.bus == nil {
		return
	}
	if e.ID == "" {
		e.ID = events.NewID()
	}
	r.bus.Publish(e)
}

// Pulse applies a heartbeat for agent: the amount is burned to the sink, the
// streak advances under the day-boundary rules, and the volume counter grows.
// The transfer and the record update are one unit; a failed transfer leaves
// the record untouched.
func (r *Registry) Pulse(agent string, amount uint64) (*Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if min := r.params.MinSignalAmount(); amount < min {
		return nil, &BelowMinimumError{Amount: amount, Minimum: min}
	}
	if r.params.Paused() {
		return nil, ErrPaused
	}

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return nil, err
	}

	if err := r.assets.TransferFrom(agent, ledger.Sink, amount); err != nil {
		return nil, fmt.Errorf("pulse transfer: %w", err)
	}

	now := r.now()
	rec.Streak = NextStreak(rec.LastSignalAt, rec.Streak, now)
	rec.TotalSignaled += amount
	rec.LastSignalAt = now

	if err := r.store.Put(rec); err != nil {
		return nil, fmt.Errorf("store record %s: %w", agent, err)
	}

	r.emit(events.Event{
		Type:          events.TypePulse,
		Agent:         agent,
		Amount:        amount,
		Timestamp:     now,
		Streak:        rec.Streak,
		TotalSignaled: rec.TotalSignaled,
	})

	return r.statusOf(rec, now), nil
}

// Stake pulls amount into registry custody and restarts the 7-day lockup,
// including on top-ups to an already-locked stake. Staking is independent of
// the pause flag and of liveness.
func (r *Registry) Stake(agent string, amount uint64) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount == 0 {
		return nil, ErrZeroAmount
	}

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return nil, err
	}

	if err := r.assets.TransferFrom(agent, ledger.Custody, amount); err != nil {
		return nil, fmt.Errorf("stake transfer: %w", err)
	}

	now := r.now()
	rec.StakedAmount += amount
	rec.StakeUnlockAt = now + StakeLockupSeconds
	rec.StakeStartedAt = now

	if err := r.store.Put(rec); err != nil {
		return nil, fmt.Errorf("store record %s: %w", agent, err)
	}

	r.emit(events.Event{
		Type:      events.TypeStake,
		Agent:     agent,
		Amount:    amount,
		Timestamp: now,
	})

	copied := *rec
	return &copied, nil
}

// Unstake returns amount to the agent. It fails while now is strictly before
// the unlock time; withdrawal is permitted at the exact unlock instant.
func (r *Registry) Unstake(agent string, amount uint64) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount == 0 {
		return nil, ErrZeroAmount
	}

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if now < rec.StakeUnlockAt {
		return nil, &StakeLockupActiveError{UnlockAt: rec.StakeUnlockAt}
	}
	if amount > rec.StakedAmount {
		return nil, &InsufficientStakeError{Requested: amount, Available: rec.StakedAmount}
	}

	if err := r.assets.TransferFrom(ledger.Custody, agent, amount); err != nil {
		return nil, fmt.Errorf("unstake transfer: %w", err)
	}

	rec.StakedAmount -= amount

	if err := r.store.Put(rec); err != nil {
		return nil, fmt.Errorf("store record %s: %w", agent, err)
	}

	r.emit(events.Event{
		Type:      events.TypeUnstake,
		Agent:     agent,
		Amount:    amount,
		Timestamp: now,
	})

	copied := *rec
	return &copied, nil
}

// IsAlive reports whether the agent pulsed within the liveness window.
func (r *Registry) IsAlive(agent string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return false, err
	}
	return rec.AliveAt(r.params.TTLSeconds(), r.now()), nil
}

// Status returns the liveness snapshot for an agent. Unknown agents get a
// zero-valued snapshot, not an error.
func (r *Registry) Status(agent string) (*Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return nil, err
	}
	return r.statusOf(rec, r.now()), nil
}

func (r *Registry) statusOf(rec *Record, now int64) *Status {
	return &Status{
		Address:       rec.Address,
		Alive:         rec.AliveAt(r.params.TTLSeconds(), now),
		LastSignalAt:  rec.LastSignalAt,
		Streak:        rec.Streak,
		TotalSignaled: rec.TotalSignaled,
	}
}

// ReliabilityScore returns the agent's current 0-100 score.
func (r *Registry) ReliabilityScore(agent string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return 0, err
	}
	return Score(rec, r.params.TTLSeconds(), r.now()), nil
}

// TierOf returns the agent's current access tier.
func (r *Registry) TierOf(agent string) (Tier, error) {
	score, err := r.ReliabilityScore(agent)
	if err != nil {
		return "", err
	}
	return TierForScore(score), nil
}

// IsVerified reports whether the agent is alive with a streak above
// VerifiedStreak. It is a cheap check that skips the score pipeline.
func (r *Registry) IsVerified(agent string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return false, err
	}
	return rec.AliveAt(r.params.TTLSeconds(), r.now()) && rec.Streak > VerifiedStreak, nil
}

// RequireReliability is the gate other systems call before acting on an
// agent's behalf. It fails with *NotAliveError for a lapsed agent and
// *ReliabilityTooLowError when the score is under minScore; success changes
// no state.
func (r *Registry) RequireReliability(agent string, minScore int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.getOrDefault(agent)
	if err != nil {
		return err
	}

	ttl := r.params.TTLSeconds()
	now := r.now()
	if !rec.AliveAt(ttl, now) {
		return &NotAliveError{Agent: agent}
	}
	if score := Score(rec, ttl, now); score < minScore {
		return &ReliabilityTooLowError{Score: score, Required: minScore}
	}
	return nil
}

// TTLSeconds returns the current liveness window.
func (r *Registry) TTLSeconds() int64 {
	return r.params.TTLSeconds()
}

// MinSignalAmount returns the current minimum pulse amount.
func (r *Registry) MinSignalAmount() uint64 {
	return r.params.MinSignalAmount()
}

// Paused reports whether signaling is paused.
func (r *Registry) Paused() bool {
	return r.params.Paused()
}

// SetTTL changes the liveness window and emits a parameter-change event.
func (r *Registry) SetTTL(caller string, seconds int64) error {
	if err := r.params.SetTTL(caller, seconds); err != nil {
		return err
	}
	r.emit(events.Event{
		Type:      events.TypeTTLChanged,
		Timestamp: r.now(),
		Detail:    strconv.FormatInt(seconds, 10),
	})
	return nil
}

// SetMinSignalAmount changes the minimum pulse amount and emits a
// parameter-change event.
func (r *Registry) SetMinSignalAmount(caller string, amount uint64) error {
	if err := r.params.SetMinSignalAmount(caller, amount); err != nil {
		return err
	}
	r.emit(events.Event{
		Type:      events.TypeMinAmountChanged,
		Timestamp: r.now(),
		Detail:    strconv.FormatUint(amount, 10),
	})
	return nil
}

// Pause stops the signal processor; staking and reads continue.
func (r *Registry) Pause(caller string) error {
	if err := r.params.Pause(caller); err != nil {
		return err
	}
	r.emit(events.Event{Type: events.TypePaused, Timestamp: r.now()})
	return nil
}

// Unpause resumes the signal processor.
func (r *Registry) Unpause(caller string) error {
	if err := r.params.Unpause(caller); err != nil {
		return err
	}
	r.emit(events.Event{Type: events.TypeUnpaused, Timestamp: r.now()})
	return nil
}

// CollectStats scans all records for operational logging.
func (r *Registry) CollectStats() (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs, err := r.store.All()
	if err != nil {
		return Stats{}, fmt.Errorf("list records: %w", err)
	}

	ttl := r.params.TTLSeconds()
	now := r.now()

	var stats Stats
	stats.Agents = len(recs)
	for i := range recs {
		if recs[i].AliveAt(ttl, now) {
			stats.Alive++
		}
		stats.TotalStaked += recs[i].StakedAmount
	}
	return stats, nil
}
