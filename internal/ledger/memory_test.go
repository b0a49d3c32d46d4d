package ledger

import (
	"errors"
	"testing"
)

func TestMintAndBalance(t *testing.T) {
	m := NewMemory()

	if got := m.BalanceOf("0xaa"); got != 0 {
		t.Errorf("fresh balance = %d, want 0", got)
	}

	m.Mint("0xaa", 500)
	m.Mint("0xaa", 250)

	if got := m.BalanceOf("0xaa"); got != 750 {
		t.Errorf("balance after minting = %d, want 750", got)
	}
}

func TestTransferFrom(t *testing.T) {
	m := NewMemory()
	m.Mint("0xaa", 1000)

	if err := m.TransferFrom("0xaa", Sink, 400); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}

	if got := m.BalanceOf("0xaa"); got != 600 {
		t.Errorf("source balance = %d, want 600", got)
	}
	if got := m.BalanceOf(Sink); got != 400 {
		t.Errorf("sink balance = %d, want 400", got)
	}
}

func TestTransferFromInsufficient(t *testing.T) {
	m := NewMemory()
	m.Mint("0xaa", 100)

	err := m.TransferFrom("0xaa", "0xbb", 101)
	if err == nil {
		t.Fatal("TransferFrom succeeded, want insufficient balance error")
	}

	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error type = %T, want *InsufficientBalanceError", err)
	}
	if insufficient.Requested != 101 || insufficient.Available != 100 {
		t.Errorf("error values = (%d, %d), want (101, 100)",
			insufficient.Requested, insufficient.Available)
	}

	// A failed transfer must not move anything.
	if got := m.BalanceOf("0xaa"); got != 100 {
		t.Errorf("source balance after failed transfer = %d, want 100", got)
	}
	if got := m.BalanceOf("0xbb"); got != 0 {
		t.Errorf("destination balance after failed transfer = %d, want 0", got)
	}
}

func TestTransferFromZeroAmount(t *testing.T) {
	m := NewMemory()

	if err := m.TransferFrom("0xaa", "0xbb", 0); err != nil {
		t.Fatalf("zero-amount transfer: %v", err)
	}
}
