package registry

import (
	"errors"
	"testing"
)

const admin = "0xadmin"

func TestNewParamsDefaults(t *testing.T) {
	p := NewParams(admin)

	if got := p.TTLSeconds(); got != DefaultTTLSeconds {
		t.Errorf("TTLSeconds = %d, want %d", got, DefaultTTLSeconds)
	}
	if got := p.MinSignalAmount(); got != DefaultMinSignalAmount {
		t.Errorf("MinSignalAmount = %d, want %d", got, DefaultMinSignalAmount)
	}
	if p.Paused() {
		t.Error("fresh params are paused")
	}
	if got := p.Administrator(); got != admin {
		t.Errorf("Administrator = %q, want %q", got, admin)
	}
}

func TestSetTTLBounds(t *testing.T) {
	p := NewParams(admin)

	for _, v := range []int64{MinTTLSeconds, 12 * 3600, MaxTTLSeconds} {
		if err := p.SetTTL(admin, v); err != nil {
			t.Errorf("SetTTL(%d): %v", v, err)
		}
		if got := p.TTLSeconds(); got != v {
			t.Errorf("TTLSeconds after SetTTL(%d) = %d", v, got)
		}
	}

	for _, v := range []int64{0, -1, MinTTLSeconds - 1, MaxTTLSeconds + 1} {
		err := p.SetTTL(admin, v)
		var invalid *InvalidTTLError
		if !errors.As(err, &invalid) {
			t.Errorf("SetTTL(%d) error = %v, want *InvalidTTLError", v, err)
			continue
		}
		if invalid.Value != v {
			t.Errorf("InvalidTTLError.Value = %d, want %d", invalid.Value, v)
		}
	}

	// Rejected input must not change state.
	if got := p.TTLSeconds(); got != MaxTTLSeconds {
		t.Errorf("TTLSeconds after rejected inputs = %d, want %d", got, MaxTTLSeconds)
	}
}

func TestSetMinSignalAmountBounds(t *testing.T) {
	p := NewParams(admin)

	for _, v := range []uint64{1, OneUnit, MaxMinSignalAmount} {
		if err := p.SetMinSignalAmount(admin, v); err != nil {
			t.Errorf("SetMinSignalAmount(%d): %v", v, err)
		}
	}

	for _, v := range []uint64{0, MaxMinSignalAmount + 1} {
		err := p.SetMinSignalAmount(admin, v)
		var invalid *InvalidMinAmountError
		if !errors.As(err, &invalid) {
			t.Errorf("SetMinSignalAmount(%d) error = %v, want *InvalidMinAmountError", v, err)
		}
	}
}

func TestParamsRejectNonAdministrator(t *testing.T) {
	p := NewParams(admin)

	if err := p.SetTTL("0xmallory", 7200); !errors.Is(err, ErrNotAdministrator) {
		t.Errorf("SetTTL by non-admin = %v, want ErrNotAdministrator", err)
	}
	if err := p.SetMinSignalAmount("0xmallory", OneUnit); !errors.Is(err, ErrNotAdministrator) {
		t.Errorf("SetMinSignalAmount by non-admin = %v, want ErrNotAdministrator", err)
	}
	if err := p.Pause("0xmallory"); !errors.Is(err, ErrNotAdministrator) {
		t.Errorf("Pause by non-admin = %v, want ErrNotAdministrator", err)
	}
	if err := p.Unpause("0xmallory"); !errors.Is(err, ErrNotAdministrator) {
		t.Errorf("Unpause by non-admin = %v, want ErrNotAdministrator", err)
	}
}

func TestPauseUnpause(t *testing.T) {
	p := NewParams(admin)

	if err := p.Pause(admin); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !p.Paused() {
		t.Error("Paused = false after Pause")
	}
	if err := p.Unpause(admin); err != nil {
		t.Fatalf("Unpause: %v", err)
	}
	if p.Paused() {
		t.Error("Paused = true after Unpause")
	}
}

func TestRestoreParams(t *testing.T) {
	p := RestoreParams(admin, 7200, 5*OneUnit, true)

	if got := p.TTLSeconds(); got != 7200 {
		t.Errorf("TTLSeconds = %d, want 7200", got)
	}
	if got := p.MinSignalAmount(); got != 5*OneUnit {
		t.Errorf("MinSignalAmount = %d, want %d", got, 5*OneUnit)
	}
	if !p.Paused() {
		t.Error("Paused = false, want true")
	}
}
