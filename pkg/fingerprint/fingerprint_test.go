package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrobeIndexBoundary(t *testing.T) {
	cases := []struct {
		ts, start, period uint64
		want              uint64
	}{
		{0, 0, 10, 0},
		{10, 0, 10, 1},
		{11, 0, 10, 1},
		{12, 0, 10, 1},
		{20, 0, 10, 2},
		{30, 0, 10, 3},
	}
	for _, c := range cases {
		got := StrobeIndex(c.ts, c.start, c.period)
		require.Equalf(t, c.want, got, "StrobeIndex(%d,%d,%d)", c.ts, c.start, c.period)
	}
}

// TestSingleBitSingleTrace reproduces scenario 1: timestamps {0,10,20,30},
// value 1 at t=10, 0 at t=20, 1 at t=30, strobe_start=0, period=10.
func TestSingleBitSingleTrace(t *testing.T) {
	var h uint64
	var s BitState

	s.Observe(&h, StrobeIndex(10, 0, 10), 1)
	s.Observe(&h, StrobeIndex(20, 0, 10), 0)
	s.Observe(&h, StrobeIndex(30, 0, 10), 1)
	s.Flush(&h)

	var want uint64
	want = Commit(want, 1, 1) // (1, 0->1)
	want = Commit(want, 2, 0) // (2, 1->0)
	want = Commit(want, 3, 1) // (3, 0->1)

	require.Equal(t, want, h)
}

// TestIntraStrobeCollapse reproduces scenario 2: t=10 set 1, t=11 set 0,
// t=12 set 1, all within strobe index 1. Only the last value (1)
// commits, from the pre-strobe state 0.
func TestIntraStrobeCollapse(t *testing.T) {
	var h uint64
	var s BitState

	s.Observe(&h, StrobeIndex(10, 0, 10), 1)
	s.Observe(&h, StrobeIndex(11, 0, 10), 0)
	s.Observe(&h, StrobeIndex(12, 0, 10), 1)
	s.Flush(&h)

	require.Equal(t, Commit(0, 1, 1), h)
}

// TestPreStrobeSuppression: a value change at t <= strobe_start never
// commits, it only seeds the initial current state.
func TestPreStrobeSuppression(t *testing.T) {
	var h uint64
	var s BitState

	s.Observe(&h, StrobeIndex(0, 0, 10), 1)
	s.Flush(&h)

	require.Zero(t, h, "expected no commit from a pre-strobe value change")
}

func TestEmptyTraceNeverCommits(t *testing.T) {
	var h uint64
	var s BitState
	s.Flush(&h)
	require.Zero(t, h, "expected flush of a never-touched bit to be a no-op")
}

func TestObserveReportsCommit(t *testing.T) {
	var h uint64
	var s BitState

	require.False(t, s.Observe(&h, 1, 1), "first observation only seeds state, nothing pending yet")
	require.True(t, s.Observe(&h, 2, 0), "second observation at a new strobe commits the pending transition")
	require.True(t, s.Flush(&h), "flush commits the transition still pending after the stream ends")
	require.False(t, s.Flush(&h), "a second flush with nothing pending reports no commit")
}
