// Package journal provides SQLite-backed storage for bond events.
// It implements sim.Notifier, so a Journal can be registered with a
// NotificationManager and record every topology change a world emits.
package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mauro3422/lifesim/internal/sim"
)

// Journal wraps a SQLite connection holding the bond-event log.
type Journal struct {
	id   string
	conn *sqlx.DB
}

// Open opens or creates a journal database at the given path.
func Open(id, path string) (*Journal, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{id: id, conn: conn}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bond_events (
		id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		type TEXT NOT NULL,
		tick INTEGER NOT NULL,
		entity_a INTEGER NOT NULL,
		entity_b INTEGER NOT NULL,
		element_a TEXT,
		element_b TEXT,
		ring_instance INTEGER NOT NULL,
		ring_size INTEGER NOT NULL,
		molecule_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bond_events_tick ON bond_events(world_id, tick);
	CREATE INDEX IF NOT EXISTS idx_bond_events_type ON bond_events(type);
	`
	_, err := j.conn.Exec(schema)
	return err
}

// ID returns the notifier ID
func (j *Journal) ID() string {
	return j.id
}

// Type returns the notifier type
func (j *Journal) Type() string {
	return "journal"
}

// Notify appends one bond event to the log.
func (j *Journal) Notify(ctx context.Context, event sim.BondEvent) error {
	_, err := j.conn.ExecContext(ctx, `INSERT INTO bond_events
		(id, world_id, type, tick, entity_a, entity_b, element_a, element_b,
		 ring_instance, ring_size, molecule_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.WorldID), string(event.Type), event.Tick,
		event.EntityA, event.EntityB, string(event.ElementA), string(event.ElementB),
		event.RingInstance, event.RingSize, event.MoleculeID, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert bond event %s: %w", event.ID, err)
	}
	return nil
}

// eventRow mirrors the bond_events table layout for sqlx scanning.
type eventRow struct {
	ID           string `db:"id"`
	WorldID      string `db:"world_id"`
	Type         string `db:"type"`
	Tick         uint64 `db:"tick"`
	EntityA      int    `db:"entity_a"`
	EntityB      int    `db:"entity_b"`
	ElementA     string `db:"element_a"`
	ElementB     string `db:"element_b"`
	RingInstance int    `db:"ring_instance"`
	RingSize     int    `db:"ring_size"`
	MoleculeID   int    `db:"molecule_id"`
	Timestamp    int64  `db:"timestamp"`
}

func (r eventRow) event() sim.BondEvent {
	return sim.BondEvent{
		ID:           r.ID,
		WorldID:      sim.WorldID(r.WorldID),
		Type:         sim.EventType(r.Type),
		Tick:         r.Tick,
		EntityA:      r.EntityA,
		EntityB:      r.EntityB,
		ElementA:     sim.ElementID(r.ElementA),
		ElementB:     sim.ElementID(r.ElementB),
		RingInstance: r.RingInstance,
		RingSize:     r.RingSize,
		MoleculeID:   r.MoleculeID,
		Timestamp:    r.Timestamp,
	}
}

// Recent returns the most recent N events for a world, newest first.
func (j *Journal) Recent(worldID sim.WorldID, limit int) ([]sim.BondEvent, error) {
	var rows []eventRow
	err := j.conn.Select(&rows,
		`SELECT id, world_id, type, tick, entity_a, entity_b, element_a, element_b,
		        ring_instance, ring_size, molecule_id, timestamp
		 FROM bond_events WHERE world_id = ? ORDER BY tick DESC, timestamp DESC LIMIT ?`,
		string(worldID), limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]sim.BondEvent, len(rows))
	for i, r := range rows {
		events[i] = r.event()
	}
	return events, nil
}

// CountByType returns how many events of each type a world has logged.
func (j *Journal) CountByType(worldID sim.WorldID) (map[sim.EventType]int, error) {
	var rows []struct {
		Type  string `db:"type"`
		Count int    `db:"count"`
	}
	err := j.conn.Select(&rows,
		"SELECT type, COUNT(*) AS count FROM bond_events WHERE world_id = ? GROUP BY type",
		string(worldID),
	)
	if err != nil {
		return nil, err
	}
	counts := make(map[sim.EventType]int, len(rows))
	for _, r := range rows {
		counts[sim.EventType(r.Type)] = r.Count
	}
	return counts, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.conn.Close()
}
