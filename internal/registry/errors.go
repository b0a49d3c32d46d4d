package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for failures that carry no offending values.
var (
	// ErrPaused is returned by Pulse while signaling is paused.
	ErrPaused = errors.New("signaling is paused")

	// ErrZeroAmount is returned by Stake and Unstake for a zero amount.
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrNotAdministrator is returned by admin operations for any caller
	// other than the configured administrator.
	ErrNotAdministrator = errors.New("caller is not the administrator")
)

// BelowMinimumError reports a pulse amount under the configured minimum.
type BelowMinimumError struct {
	Amount  uint64
	Minimum uint64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("pulse amount %d below minimum %d", e.Amount, e.Minimum)
}

// StakeLockupActiveError reports an unstake attempted before the lockup
// expires. Withdrawal is permitted at exactly UnlockAt.
type StakeLockupActiveError struct {
	UnlockAt int64
}

func (e *StakeLockupActiveError) Error() string {
	return fmt.Sprintf("stake locked until %d", e.UnlockAt)
}

// InsufficientStakeError reports an unstake larger than the staked balance.
type InsufficientStakeError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientStakeError) Error() string {
	return fmt.Sprintf("insufficient stake: requested %d, available %d", e.Requested, e.Available)
}

// InvalidTTLError reports a liveness window outside [1h, 30d].
type InvalidTTLError struct {
	Value int64
}

func (e *InvalidTTLError) Error() string {
	return fmt.Sprintf("ttl %ds outside [%d, %d]", e.Value, MinTTLSeconds, MaxTTLSeconds)
}

// InvalidMinAmountError reports a minimum pulse amount outside
// (0, MaxMinSignalAmount].
type InvalidMinAmountError struct {
	Value uint64
}

func (e *InvalidMinAmountError) Error() string {
	return fmt.Sprintf("minimum pulse amount %d outside (0, %d]", e.Value, MaxMinSignalAmount)
}

// NotAliveError reports that an agent's liveness window has lapsed (or the
// agent never pulsed) when a gated operation required it alive.
type NotAliveError struct {
	Agent string
}

func (e *NotAliveError) Error() string {
	return fmt.Sprintf("agent %s is not alive", e.Agent)
}

// ReliabilityTooLowError reports a score under a gate's required minimum.
type ReliabilityTooLowError struct {
	Score    int
	Required int
}

func (e *ReliabilityTooLowError) Error() string {
	return fmt.Sprintf("reliability score %d below required %d", e.Score, e.Required)
}
