package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// ParamsRow is the persisted form of the singleton protocol parameters.
type ParamsRow struct {
	TTLSeconds      int64
	MinSignalAmount uint64
	Paused          bool
	Administrator   string
}

// SaveParams upserts the singleton parameter row.
func (d *DB) SaveParams(p *ParamsRow) error {
	_, err := d.db.Exec(
		`INSERT INTO params (id, ttl_seconds, min_signal_amount, paused, administrator)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 ttl_seconds = excluded.ttl_seconds,
		 min_signal_amount = excluded.min_signal_amount,
		 paused = excluded.paused,
		 administrator = excluded.administrator`,
		p.TTLSeconds, int64(p.MinSignalAmount), boolToInt(p.Paused), p.Administrator,
	)
	if err != nil {
		return fmt.Errorf("save params: %w", err)
	}
	return nil
}

// LoadParams returns the persisted parameters, or (nil, nil) when none have
// been saved yet (first boot).
func (d *DB) LoadParams() (*ParamsRow, error) {
	p := &ParamsRow{}
	var minAmount int64
	var paused int
	err := d.db.QueryRow(
		`SELECT ttl_seconds, min_signal_amount, paused, administrator FROM params WHERE id = 1`,
	).Scan(&p.TTLSeconds, &minAmount, &paused, &p.Administrator)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	p.MinSignalAmount = uint64(minAmount)
	p.Paused = paused != 0
	return p, nil
}
