// Package ingest streams a value-change trace into a HashDB: a header
// pass that resolves the code-to-slot aliasing protocol, and a body pass
// that drives per-bit BitHasher state machines from the token stream.
package ingest

import (
	"errors"
	"fmt"
	"io"

	"simalign/internal/logging"
	"simalign/internal/statusapi"
	"simalign/pkg/fingerprint"
	"simalign/pkg/hashdb"
	"simalign/pkg/hier"
	"simalign/pkg/vcdstream"
)

// ErrAliasBreak signals one slot range receiving two distinct codes
// within a single trace — a protocol violation that would silently
// corrupt the body-pass code-to-slot mapping if allowed through.
var ErrAliasBreak = errors.New("ingest: alias break, one slot claimed by two codes in one trace")

// ErrBitCountMismatch signals a ValueChange whose bit count does not
// match its code's declared width.
var ErrBitCountMismatch = errors.New("ingest: value change bit count does not match declared width")

// state is the WaveformIngest transient state (spec'd as code_to_slot,
// slot_owner, states): discarded at the end of each ingestion.
type state struct {
	db          *hashdb.DB
	codeToSlot  map[string]int
	codeWidth   map[string]int
	slotOwner   []string
	bits        []fingerprint.BitState
	transitions int
}

func newState(db *hashdb.DB) *state {
	return &state{
		db:         db,
		codeToSlot: make(map[string]int),
		codeWidth:  make(map[string]int),
		slotOwner:  make([]string, db.NumSlots()),
		bits:       make([]fingerprint.BitState, db.NumSlots()),
	}
}

func (s *state) growTo(n int) {
	for len(s.slotOwner) < n {
		s.slotOwner = append(s.slotOwner, "")
	}
	for len(s.bits) < n {
		s.bits = append(s.bits, fingerprint.BitState{})
	}
}

// bitsAndOffsets expands a variable's index descriptor into the list of
// per-bit indices (in name_to_slot insertion order) and their matching
// slot offsets from the range's base, per the MSB-at-offset-0 rule.
func bitsAndOffsets(idx vcdstream.Index) (bits []int64, offsets []int) {
	switch idx.Kind {
	case vcdstream.IndexNone:
		return []int64{hier.NoBit}, []int{0}
	case vcdstream.IndexBit:
		return []int64{int64(idx.Bit)}, []int{0}
	case vcdstream.IndexRange:
		msb, lsb := idx.MSB, idx.LSB
		if msb >= lsb {
			for b := lsb; b <= msb; b++ {
				bits = append(bits, int64(b))
				offsets = append(offsets, msb-b)
			}
		} else {
			for b := msb; b <= lsb; b++ {
				bits = append(bits, int64(b))
				offsets = append(offsets, b-msb)
			}
		}
		return bits, offsets
	default:
		return []int64{hier.NoBit}, []int{0}
	}
}

func firstBitOf(idx vcdstream.Index) int64 {
	switch idx.Kind {
	case vcdstream.IndexBit:
		return int64(idx.Bit)
	case vcdstream.IndexRange:
		return int64(idx.MSB)
	default:
		return hier.NoBit
	}
}

func (s *state) processHeaderVar(v vcdstream.Var) error {
	bits, offsets := bitsAndOffsets(v.Index)
	width := len(bits)
	firstBit := firstBitOf(v.Index)
	lookupKey := hier.Ref{Path: v.Path, Bit: firstBit}

	var start int
	if slot, ok := s.db.SlotFor(lookupKey); ok {
		start = slot
		for i, b := range bits {
			name := hier.Ref{Path: v.Path, Bit: b}
			got, ok := s.db.SlotFor(name)
			if !ok || got != start+offsets[i] {
				return fmt.Errorf("%w: %s declared width %d conflicts with existing entries", hashdb.ErrWidthMismatch, hier.String(lookupKey), width)
			}
		}
		// A name that already had a slot before this variable was
		// processed is resolving to a previously-established identity,
		// not claiming fresh trace-local ownership of it: aliasing
		// across traces (a name fed under one code last trace and a
		// different code this trace) is expected and must not trip the
		// de-alias check below, which only guards slot ranges this
		// trace is establishing for the first time.
	} else {
		if slot, ok := s.codeToSlot[v.Code]; ok {
			start = slot
		} else {
			start = s.db.AllocateRange(width)
			s.growTo(s.db.NumSlots())
		}
		for i, b := range bits {
			name := hier.New(v.Path, b)
			if existing, ok := s.db.SlotFor(name); ok {
				if existing != start+offsets[i] {
					return fmt.Errorf("%w: %s conflicts with a previously stored, incompatible layout", hashdb.ErrWidthMismatch, name)
				}
				continue
			}
			s.db.Insert(name, start+offsets[i])
		}

		switch owner := s.slotOwner[start]; owner {
		case "":
			s.slotOwner[start] = v.Code
		case v.Code:
		default:
			return fmt.Errorf("%w: codes %s and %s both claim slot %d", ErrAliasBreak, v.Code, owner, start)
		}
	}

	if slot, ok := s.codeToSlot[v.Code]; ok {
		if slot != start {
			return fmt.Errorf("%w: code %s previously resolved to slot %d, now %d", ErrAliasBreak, v.Code, slot, start)
		}
	} else {
		s.codeToSlot[v.Code] = start
	}
	s.codeWidth[v.Code] = width

	return nil
}

func (s *state) applyValueChange(vc vcdstream.ValueChange, curStrobe uint64) error {
	base, ok := s.codeToSlot[vc.Code]
	if !ok {
		return fmt.Errorf("ingest: value change for undeclared code %q", vc.Code)
	}
	width := s.codeWidth[vc.Code]
	if len(vc.Bits) != width {
		return fmt.Errorf("%w: code %q has width %d, value change carries %d bits", ErrBitCountMismatch, vc.Code, width, len(vc.Bits))
	}
	for i, newBit := range vc.Bits {
		slot := base + i
		if s.bits[slot].Observe(&s.db.Hashes[slot], curStrobe, newBit) {
			s.transitions++
		}
	}
	return nil
}

func logInfo(log *logging.Logger, format string, args ...any) {
	if log != nil {
		log.Info(format, args...)
	}
}

func logWarn(log *logging.Logger, format string, args ...any) {
	if log != nil {
		log.Warn(format, args...)
	}
}

func report(tracker *statusapi.Tracker, snap statusapi.Snapshot) {
	if tracker != nil {
		tracker.Set(snap)
	}
}

// Ingest streams one trace into db: applies the inter-trace separator,
// runs the header pass (resolving aliasing and extending the schema as
// needed), then the body pass (driving BitHasher state machines), and
// finally flushes every slot's pending transition. tracker, if non-nil,
// is kept current with the phase and counters so a status server or TUI
// can report progress; it may be nil.
//
// On error db may be partially mutated; callers must not persist it.
func Ingest(db *hashdb.DB, trace io.Reader, strobeStart, strobePeriod uint64, log *logging.Logger, tracker *statusapi.Tracker) error {
	namesBefore := db.Len()
	db.ApplySeparator()

	report(tracker, statusapi.Snapshot{Phase: statusapi.PhaseHeader, NamesIngested: db.Len(), SlotsAllocated: db.NumSlots()})

	reader, err := vcdstream.NewReader(trace)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	st := newState(db)
	for _, v := range reader.Vars() {
		if err := st.processHeaderVar(v); err != nil {
			return err
		}
	}

	if namesBefore == 0 {
		logInfo(log, "initial population: %d names, %d slots", db.Len(), db.NumSlots())
	} else if db.Len() > namesBefore {
		logWarn(log, "schema extension: %d names now (%d new), %d slots", db.Len(), db.Len()-namesBefore, db.NumSlots())
	}

	report(tracker, statusapi.Snapshot{Phase: statusapi.PhaseBody, NamesIngested: db.Len(), SlotsAllocated: db.NumSlots()})

	var curStrobe uint64
	for {
		tok, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		switch t := tok.(type) {
		case vcdstream.Timestamp:
			curStrobe = fingerprint.StrobeIndex(t.Time, strobeStart, strobePeriod)
			report(tracker, statusapi.Snapshot{
				Phase:            statusapi.PhaseBody,
				NamesIngested:    db.Len(),
				SlotsAllocated:   db.NumSlots(),
				TransitionsSoFar: st.transitions,
			})
		case vcdstream.ValueChange:
			if err := st.applyValueChange(t, curStrobe); err != nil {
				return err
			}
		}
	}

	report(tracker, statusapi.Snapshot{
		Phase:            statusapi.PhaseFlush,
		NamesIngested:    db.Len(),
		SlotsAllocated:   db.NumSlots(),
		TransitionsSoFar: st.transitions,
	})

	for slot := 0; slot < db.NumSlots(); slot++ {
		if st.bits[slot].Flush(&db.Hashes[slot]) {
			st.transitions++
		}
	}

	report(tracker, statusapi.Snapshot{
		Phase:            statusapi.PhaseDone,
		NamesIngested:    db.Len(),
		SlotsAllocated:   db.NumSlots(),
		TransitionsSoFar: st.transitions,
	})
	return nil
}
