package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/agent-pulse/pulsed/internal/registry"
)

// Get returns the record for address, or (nil, nil) if the agent has never
// been seen. Together with Put and All it implements registry.RecordStore.
func (d *DB) Get(address string) (*registry.Record, error) {
	rec := &registry.Record{Address: address}
	var totalSignaled, stakedAmount int64
	err := d.db.QueryRow(
		`SELECT last_signal_at, streak, total_signaled, staked_amount, stake_unlock_at, stake_started_at
		 FROM agents WHERE address = ?`, address,
	).Scan(&rec.LastSignalAt, &rec.Streak, &totalSignaled, &stakedAmount,
		&rec.StakeUnlockAt, &rec.StakeStartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	rec.TotalSignaled = uint64(totalSignaled)
	rec.StakedAmount = uint64(stakedAmount)
	return rec, nil
}

// Put inserts or replaces the record for rec.Address.
func (d *DB) Put(rec *registry.Record) error {
	_, err := d.db.Exec(
		`INSERT INTO agents (address, last_signal_at, streak, total_signaled, staked_amount, stake_unlock_at, stake_started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
		 last_signal_at = excluded.last_signal_at,
		 streak = excluded.streak,
		 total_signaled = excluded.total_signaled,
		 staked_amount = excluded.staked_amount,
		 stake_unlock_at = excluded.stake_unlock_at,
		 stake_started_at = excluded.stake_started_at`,
		rec.Address, rec.LastSignalAt, rec.Streak, int64(rec.TotalSignaled),
		int64(rec.StakedAmount), rec.StakeUnlockAt, rec.StakeStartedAt,
	)
	if err != nil {
		return fmt.Errorf("put agent: %w", err)
	}
	return nil
}

// All returns every stored agent record.
func (d *DB) All() ([]registry.Record, error) {
	rows, err := d.db.Query(
		`SELECT address, last_signal_at, streak, total_signaled, staked_amount, stake_unlock_at, stake_started_at
		 FROM agents`,
	)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var recs []registry.Record
	for rows.Next() {
		var rec registry.Record
		var totalSignaled, stakedAmount int64
		if err := rows.Scan(&rec.Address, &rec.LastSignalAt, &rec.Streak,
			&totalSignaled, &stakedAmount, &rec.StakeUnlockAt, &rec.StakeStartedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		rec.TotalSignaled = uint64(totalSignaled)
		rec.StakedAmount = uint64(stakedAmount)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// --- Agent key CRUD ---

// AgentKey is an enrolled agent identity: the Ed25519 public key behind a
// derived ledger address.
type AgentKey struct {
	Address    string `json:"address"`
	PublicKey  []byte `json:"public_key"`
	Label      string `json:"label"`
	EnrolledAt int64  `json:"enrolled_at"`
}

// PutAgentKey inserts or replaces an enrolled key. Re-enrolling the same
// address with the same key is idempotent.
func (d *DB) PutAgentKey(k *AgentKey) error {
	_, err := d.db.Exec(
		`INSERT INTO agent_keys (address, public_key, label, enrolled_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
		 public_key = excluded.public_key,
		 label = excluded.label`,
		k.Address, k.PublicKey, k.Label, k.EnrolledAt,
	)
	if err != nil {
		return fmt.Errorf("put agent key: %w", err)
	}
	return nil
}

// GetAgentKey retrieves an enrolled key by address.
func (d *DB) GetAgentKey(address string) (*AgentKey, error) {
	k := &AgentKey{}
	err := d.db.QueryRow(
		`SELECT address, public_key, label, enrolled_at FROM agent_keys WHERE address = ?`,
		address,
	).Scan(&k.Address, &k.PublicKey, &k.Label, &k.EnrolledAt)
	if err != nil {
		return nil, fmt.Errorf("get agent key: %w", err)
	}
	return k, nil
}
