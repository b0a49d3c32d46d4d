// Package ledger defines the fungible-asset interface the registry charges
// pulse fees and custodies stakes through. The production asset lives on an
// external ledger; the registry only needs transfer-on-behalf.
package ledger

import "fmt"

// Sink is the unspendable address pulse fees are burned to.
const Sink = "0x000000000000000000000000000000000000dead"

// Custody is the address holding staked balances on behalf of agents.
const Custody = "0x00000000000000000000000000000070756c7365"

// Ledger moves asset between accounts. TransferFrom debits from and credits
// to atomically; a returned error means no balance moved. Assets that signal
// failure by returning false instead of reverting must be adapted to an
// error return before reaching the registry.
type Ledger interface {
	TransferFrom(from, to string, amount uint64) error
}

// InsufficientBalanceError is returned when an account cannot cover a transfer.
type InsufficientBalanceError struct {
	Address   string
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on %s: requested %d, available %d",
		e.Address, e.Requested, e.Available)
}
