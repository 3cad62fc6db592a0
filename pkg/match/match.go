// Package match groups bit-level signals from two fingerprint databases
// by coincident fingerprint, reporting candidate equivalences.
package match

import (
	"simalign/pkg/hashdb"
	"simalign/pkg/hier"
)

// DefaultCutoff is the matcher's default size cap K: groups whose either
// side exceeds this are still counted in the summary but never detailed,
// suppressing mass-equivalence classes like constants.
const DefaultCutoff = 30

// Group is one fingerprint's left/right name lists, in insertion order
// of each source database.
type Group struct {
	Hash  uint64
	Left  []hier.Name
	Right []hier.Name
}

// Summary reports the three headline counts spec.md's CLI output needs.
type Summary struct {
	TotalGroups     int // distinct fingerprints seen on either side
	BothSided       int // groups with at least one name on each side
	BothSidedWithin int // of those, both sides <= cutoff
}

// Result is the full output of a match run.
type Result struct {
	Summary Summary
	Groups  []Group // qualifying groups only, in insertion order
}

// Run groups (HierName, slot) pairs from left and right by fingerprint
// value and reports the qualifying groups subject to cutoff.
func Run(left, right *hashdb.DB, cutoff int) Result {
	type bucket struct {
		left, right []hier.Name
	}
	order := make([]uint64, 0)
	buckets := make(map[uint64]*bucket)

	get := func(h uint64) *bucket {
		b, ok := buckets[h]
		if !ok {
			b = &bucket{}
			buckets[h] = b
			order = append(order, h)
		}
		return b
	}

	left.Names(func(name hier.Name, slot int) {
		b := get(left.Hashes[slot])
		b.left = append(b.left, name)
	})
	right.Names(func(name hier.Name, slot int) {
		b := get(right.Hashes[slot])
		b.right = append(b.right, name)
	})

	summary := Summary{TotalGroups: len(order)}
	var groups []Group
	for _, h := range order {
		b := buckets[h]
		if len(b.left) == 0 || len(b.right) == 0 {
			continue
		}
		summary.BothSided++
		if len(b.left) > cutoff || len(b.right) > cutoff {
			continue
		}
		summary.BothSidedWithin++
		groups = append(groups, Group{Hash: h, Left: b.left, Right: b.right})
	}

	return Result{Summary: summary, Groups: groups}
}
