package hier

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualOwningVsBorrowed(t *testing.T) {
	owning := New([]string{"top", "x"}, 3)
	borrowed := Ref{Path: []string{"top", "x"}, Bit: 3}
	require.True(t, Equal(owning, borrowed), "expected owning and borrowed views of the same name to be equal")
	require.Equal(t, CacheKey(owning), CacheKey(borrowed))
}

func TestEqualDistinguishesBitAbsence(t *testing.T) {
	scalar := New([]string{"top", "x"}, NoBit)
	bit0 := New([]string{"top", "x"}, 0)
	require.False(t, Equal(scalar, bit0), "scalar (no bit) must not equal bit index 0")
}

func TestStringFormatting(t *testing.T) {
	cases := []struct {
		name Name
		want string
	}{
		{New([]string{"top", "x"}, NoBit), "top/x"},
		{New([]string{"top", "v"}, 3), "top/v[3]"},
		{New([]string{"a", "b", "c"}, NoBit), "a/b/c"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.name.String())
	}
}

func TestCacheKeyDoesNotCollideAcrossSegmentBoundaries(t *testing.T) {
	a := New([]string{"ab", "c"}, NoBit)
	b := New([]string{"a", "bc"}, NoBit)
	require.NotEqual(t, CacheKey(a), CacheKey(b))
}
