package hashdb

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"simalign/pkg/hier"
)

// ErrCorrupt is returned by Load when the trailing checksum does not
// match the payload, distinguishing corruption from a decode failure.
var ErrCorrupt = errors.New("hashdb: checksum mismatch, file is corrupt")

// wireEntry mirrors entry with exported fields for CBOR encoding: name_to_slot
// is encoded as an ordered array of pairs, never as a map, so insertion
// order survives the round trip exactly.
type wireEntry struct {
	Path []string
	Bit  int64
	Slot int
}

type wireDB struct {
	Entries []wireEntry
	Hashes  []uint64
}

// Save serializes db as CBOR followed by a 32-byte BLAKE2b-256 checksum
// of the CBOR payload, and writes the result to path.
func (db *DB) Save(path string) error {
	payload, err := db.MarshalCBOR()
	if err != nil {
		return err
	}
	sum := blake2b.Sum256(payload)
	out := append(payload, sum[:]...)
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("hashdb: write %s: %w", path, err)
	}
	return nil
}

// MarshalCBOR encodes the database's CBOR payload (without the checksum
// trailer); exposed separately so Save and tests share one encode path.
func (db *DB) MarshalCBOR() ([]byte, error) {
	w := wireDB{
		Entries: make([]wireEntry, len(db.order)),
		Hashes:  db.Hashes,
	}
	for i, e := range db.order {
		w.Entries[i] = wireEntry{Path: e.name.Path, Bit: e.name.Bit, Slot: e.slot}
	}
	payload, err := cbor.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("hashdb: encode: %w", err)
	}
	return payload, nil
}

// Load reads a database previously written by Save, verifying its
// checksum before decoding.
func Load(path string) (*DB, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hashdb: read %s: %w", path, err)
	}
	if len(raw) < blake2b.Size256 {
		return nil, fmt.Errorf("hashdb: %s: %w", path, ErrCorrupt)
	}
	payload := raw[:len(raw)-blake2b.Size256]
	trailer := raw[len(raw)-blake2b.Size256:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("hashdb: %s: %w", path, ErrCorrupt)
	}
	return UnmarshalCBOR(payload)
}

// UnmarshalCBOR decodes a database from a checksum-stripped CBOR payload.
func UnmarshalCBOR(payload []byte) (*DB, error) {
	var w wireDB
	if err := cbor.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("hashdb: decode: %w", err)
	}
	db := New()
	db.Hashes = w.Hashes
	for _, e := range w.Entries {
		db.Insert(hier.New(e.Path, e.Bit), e.Slot)
	}
	return db, nil
}
