package ledger

import "sync"

// Memory is an in-memory Ledger used by the daemon's dev mode and by tests.
// Balances are keyed by account address.
type Memory struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]uint64)}
}

// Mint credits amount to an account out of thin air.
func (m *Memory) Mint(address string, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[address] += amount
}

// BalanceOf returns the current balance of an account.
func (m *Memory) BalanceOf(address string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[address]
}

// TransferFrom moves amount from one account to another. It fails with
// *InsufficientBalanceError if the source cannot cover the amount, in which
// case no balance moves.
func (m *Memory) TransferFrom(from, to string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	have := m.balances[from]
	if have < amount {
		return &InsufficientBalanceError{Address: from, Requested: amount, Available: have}
	}

	m.balances[from] = have - amount
	m.balances[to] += amount
	return nil
}
