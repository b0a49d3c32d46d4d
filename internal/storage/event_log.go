package storage

import (
	"fmt"

	"github.com/agent-pulse/pulsed/internal/events"
)

// AppendEvent adds an event to the append-only log.
func (d *DB) AppendEvent(e events.Event) error {
	_, err := d.db.Exec(
		`INSERT INTO events (id, type, agent, amount, timestamp, streak, total_signaled, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Agent, int64(e.Amount), e.Timestamp,
		e.Streak, int64(e.TotalSignaled), e.Detail,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// EventsSince returns up to limit events with timestamp >= since, oldest
// first, for indexers catching up after missing feed frames.
func (d *DB) EventsSince(since int64, limit int) ([]events.Event, error) {
	rows, err := d.db.Query(
		`SELECT id, type, agent, amount, timestamp, streak, total_signaled, detail
		 FROM events WHERE timestamp >= ? ORDER BY timestamp ASC, id ASC LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var e events.Event
		var typ string
		var amount, totalSignaled int64
		if err := rows.Scan(&e.ID, &typ, &e.Agent, &amount, &e.Timestamp,
			&e.Streak, &totalSignaled, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = events.Type(typ)
		e.Amount = uint64(amount)
		e.TotalSignaled = uint64(totalSignaled)
		out = append(out, e)
	}
	return out, rows.Err()
}
