package sim

import (
	"encoding/json"
	"fmt"
)

// Snapshot represents a point-in-time capture of a world's state: the
// three component slices plus the counters needed to resume exactly
// where the capture happened.
type Snapshot struct {
	WorldID          WorldID     `json:"world_id"`
	Tick             uint64      `json:"tick"`
	NextRingInstance int         `json:"next_ring_instance"`
	Transforms       []Transform `json:"transforms"`
	Atoms            []Atom      `json:"atoms"`
	States           []BondState `json:"states"`
}

// ValidateSnapshot performs validation checks on a snapshot.
// It verifies that:
//   - The three component slices are index-aligned
//   - All entity references (parent, cycle) are in range
//   - All elements exist in the provided catalog (if catalog is not nil)
//
// If catalog is nil, only structural validation is performed.
// Returns an error if validation fails, nil otherwise.
func ValidateSnapshot(snapshot Snapshot, catalog *Catalog) error {
	n := len(snapshot.States)
	if len(snapshot.Transforms) != n || len(snapshot.Atoms) != n {
		return fmt.Errorf("component slices are not aligned: %d transforms, %d atoms, %d states",
			len(snapshot.Transforms), len(snapshot.Atoms), n)
	}

	for i, st := range snapshot.States {
		if p := st.Parent; p != None && (p < 0 || p >= n || p == i) {
			return fmt.Errorf("entity %d has invalid parent reference %d", i, p)
		}
		if cb := st.CycleBond; cb != None && (cb < 0 || cb >= n || cb == i) {
			return fmt.Errorf("entity %d has invalid cycle reference %d", i, cb)
		}
		if st.RingInstance != None && st.RingInstance >= snapshot.NextRingInstance {
			return fmt.Errorf("entity %d references unissued ring instance %d", i, st.RingInstance)
		}
	}

	if catalog != nil {
		for i, atom := range snapshot.Atoms {
			if _, exists := catalog.Element(atom.Element); !exists {
				return fmt.Errorf("entity %d has invalid element: %s (not found in catalog)", i, atom.Element)
			}
		}
	}

	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
// Returns the JSON bytes and any encoding error.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
// Returns the decoded snapshot and any decoding error.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Snapshot captures the world's current state.
func (w *World) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := Snapshot{
		WorldID:          w.id,
		Tick:             w.tick,
		NextRingInstance: w.nextRingInstance,
		Transforms:       make([]Transform, len(w.transforms)),
		Atoms:            make([]Atom, len(w.atoms)),
		States:           make([]BondState, len(w.states)),
	}
	copy(snap.Transforms, w.transforms)
	copy(snap.Atoms, w.atoms)
	copy(snap.States, w.states)
	return snap
}

// Restore replaces the world's state with a snapshot. The snapshot is
// validated against the world's catalog first, and the topology is
// audited after loading so a hand-edited or stale snapshot cannot leave
// broken invariants behind.
func (w *World) Restore(snapshot Snapshot) error {
	if err := ValidateSnapshot(snapshot, w.catalog); err != nil {
		return fmt.Errorf("restore rejected: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick = snapshot.Tick
	w.nextRingInstance = snapshot.NextRingInstance
	w.transforms = make([]Transform, len(snapshot.Transforms))
	w.atoms = make([]Atom, len(snapshot.Atoms))
	w.states = make([]BondState, len(snapshot.States))
	copy(w.transforms, snapshot.Transforms)
	copy(w.atoms, snapshot.Atoms)
	copy(w.states, snapshot.States)

	if report := w.audit(); !report.Clean() {
		w.logger.Infof("snapshot restore repaired topology: %+v", report)
	}
	w.grid.Rebuild(w.transforms)
	return nil
}
