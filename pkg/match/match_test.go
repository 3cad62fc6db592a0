package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"simalign/pkg/hashdb"
	"simalign/pkg/hier"
)

func buildDB(names []string, hash uint64) *hashdb.DB {
	db := hashdb.New()
	start := db.AllocateRange(len(names))
	for i, n := range names {
		db.Insert(hier.New([]string{n}, hier.NoBit), start+i)
		db.Hashes[start+i] = hash
	}
	return db
}

// TestMatcherCap reproduces scenario 5: a fingerprint with 35 names on
// each side under cutoff K=30 is counted in summary line 2 but not line
// 3, and emits no detail line.
func TestMatcherCap(t *testing.T) {
	left := hashdb.New()
	start := left.AllocateRange(35)
	for i := 0; i < 35; i++ {
		left.Insert(hier.New([]string{"l", itoa(i)}, hier.NoBit), start+i)
		left.Hashes[start+i] = 42
	}

	right := hashdb.New()
	start = right.AllocateRange(35)
	for i := 0; i < 35; i++ {
		right.Insert(hier.New([]string{"r", itoa(i)}, hier.NoBit), start+i)
		right.Hashes[start+i] = 42
	}

	res := Run(left, right, DefaultCutoff)
	require.Equal(t, 1, res.Summary.TotalGroups, "expected 1 distinct fingerprint")
	require.Equal(t, 1, res.Summary.BothSided, "expected 1 both-sided group")
	require.Equal(t, 0, res.Summary.BothSidedWithin, "expected 0 both-sided-within-cap groups")
	require.Empty(t, res.Groups, "expected no detail groups emitted")
}

func TestMatcherEmitsQualifyingGroup(t *testing.T) {
	left := buildDB([]string{"a"}, 1)
	right := buildDB([]string{"b"}, 1)

	res := Run(left, right, DefaultCutoff)
	require.Equal(t, 1, res.Summary.TotalGroups)
	require.Equal(t, 1, res.Summary.BothSided)
	require.Equal(t, 1, res.Summary.BothSidedWithin)
	require.Len(t, res.Groups, 1)
	require.Equal(t, uint64(1), res.Groups[0].Hash)
}

func TestMatcherSkipsOneSidedGroups(t *testing.T) {
	left := buildDB([]string{"a"}, 7)
	right := hashdb.New()

	res := Run(left, right, DefaultCutoff)
	require.Equal(t, 1, res.Summary.TotalGroups, "expected the left-only fingerprint to still count toward total groups")
	require.Equal(t, 0, res.Summary.BothSided, "expected 0 both-sided groups for a left-only fingerprint")
	require.Empty(t, res.Groups, "expected no emitted groups")
}

func itoa(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return string(digits[i/10]) + string(digits[i%10])
}
