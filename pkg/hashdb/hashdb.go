// Package hashdb implements the persistent fingerprint database: an
// insertion-ordered mapping from hierarchical names to slots in a dense
// fingerprint vector, plus the allocation and separator operations the
// header-pass aliasing protocol needs.
package hashdb

import (
	"errors"
	"fmt"

	"simalign/pkg/fingerprint"
	"simalign/pkg/hier"
)

// ErrWidthMismatch signals a HierName re-declared with a different width
// than its stored entry — a fatal assertion per the error-handling design.
var ErrWidthMismatch = errors.New("hashdb: width mismatch for existing name")

// entry is one insertion-ordered record: the owning name and its slot.
type entry struct {
	name hier.Name
	slot int
}

// DB is the aggregate: name_to_slot (insertion-ordered) plus the dense
// fingerprint vector. Construct with New: the zero value has no index
// maps, and Insert on it panics.
type DB struct {
	order []entry
	index map[string]int // hier.CacheKey -> position in order
	slots map[string]int // hier.CacheKey -> slot, for O(1) slot lookup
	Hashes []uint64
}

// New returns an empty database.
func New() *DB {
	return &DB{
		index: make(map[string]int),
		slots: make(map[string]int),
	}
}

// Len reports the number of named entries.
func (db *DB) Len() int { return len(db.order) }

// NumSlots reports the size of the fingerprint vector.
func (db *DB) NumSlots() int { return len(db.Hashes) }

// SlotFor looks up the slot a HierName key maps to. Accepts any hier.Key
// — an owning hier.Name or a borrowed hier.Ref — so no owning Name has to
// be built for the probe (the map key string is still built per lookup).
func (db *DB) SlotFor(key hier.Key) (int, bool) {
	slot, ok := db.slots[hier.CacheKey(key)]
	return slot, ok
}

// HasContiguousRange reports whether slots [start, start+width) are all
// claimed by some name in the database — used to validate that a hit on
// the MSB of a previously-declared wider vector still covers the full
// requested width.
func (db *DB) HasContiguousRange(start, width int) bool {
	if start < 0 || start+width > len(db.Hashes) {
		return false
	}
	claimed := make([]bool, width)
	for _, e := range db.order {
		if e.slot >= start && e.slot < start+width {
			claimed[e.slot-start] = true
		}
	}
	for _, c := range claimed {
		if !c {
			return false
		}
	}
	return true
}

// Insert records name -> slot. If name is already present it must map to
// the same slot (callers are expected to have already resolved aliasing
// before calling Insert); a mismatch is a programmer error since it would
// silently corrupt name_to_slot, so it panics rather than returning an
// error a caller might ignore.
func (db *DB) Insert(name hier.Name, slot int) {
	key := hier.CacheKey(name)
	if pos, ok := db.index[key]; ok {
		if db.order[pos].slot != slot {
			panic(fmt.Sprintf("hashdb: %s already mapped to slot %d, cannot reinsert as %d", name, db.order[pos].slot, slot))
		}
		return
	}
	db.index[key] = len(db.order)
	db.order = append(db.order, entry{name: name, slot: slot})
	db.slots[key] = slot
}

// AllocateRange appends width zero-initialized fingerprints and returns
// the base slot of the new contiguous range.
func (db *DB) AllocateRange(width int) int {
	start := len(db.Hashes)
	db.Hashes = append(db.Hashes, make([]uint64, width)...)
	return start
}

// ApplySeparator multiplies every existing fingerprint by the inter-trace
// separator constant, injecting a boundary symbol before a new ingestion
// begins. Newly allocated (still-zero) slots are unaffected, matching
// their absence from prior traces.
func (db *DB) ApplySeparator() {
	for i := range db.Hashes {
		db.Hashes[i] *= fingerprint.Separator
	}
}

// Names iterates (name, slot) pairs in insertion order.
func (db *DB) Names(fn func(name hier.Name, slot int)) {
	for _, e := range db.order {
		fn(e.name, e.slot)
	}
}

// Equal reports whether two databases have the same fingerprints and the
// same name_to_slot, including iteration order — the round-trip law.
func (db *DB) Equal(other *DB) bool {
	if len(db.Hashes) != len(other.Hashes) {
		return false
	}
	for i := range db.Hashes {
		if db.Hashes[i] != other.Hashes[i] {
			return false
		}
	}
	if len(db.order) != len(other.order) {
		return false
	}
	for i := range db.order {
		if db.order[i].slot != other.order[i].slot {
			return false
		}
		if !hier.Equal(db.order[i].name, other.order[i].name) {
			return false
		}
	}
	return true
}
