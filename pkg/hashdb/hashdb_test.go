package hashdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"simalign/pkg/hier"
)

func TestAllocateRangeZeroInitialized(t *testing.T) {
	db := New()
	start := db.AllocateRange(4)
	require.Equal(t, 0, start, "expected first allocation to start at 0")
	for i := 0; i < 4; i++ {
		require.Zerof(t, db.Hashes[start+i], "expected zero-initialized fingerprint at slot %d", start+i)
	}
	next := db.AllocateRange(2)
	require.Equal(t, 4, next, "expected second allocation to start at 4")
}

func TestApplySeparatorSkipsNothingButZeroIsFixedPoint(t *testing.T) {
	db := New()
	db.AllocateRange(2)
	db.Hashes[0] = 7
	db.ApplySeparator()
	require.Equal(t, uint64(7*100_003), db.Hashes[0])
	require.Zero(t, db.Hashes[1], "expected a never-written slot to remain 0 after separator")
}

func TestInsertIsIdempotentForSameSlot(t *testing.T) {
	db := New()
	db.AllocateRange(1)
	name := hier.New([]string{"top", "x"}, hier.NoBit)
	db.Insert(name, 0)
	db.Insert(name, 0) // slot reuse law: re-declaring the same name/slot is a no-op
	require.Equal(t, 1, db.Len(), "expected exactly one entry")
}

func TestRoundTrip(t *testing.T) {
	db := New()
	db.AllocateRange(3)
	a := hier.New([]string{"top", "a"}, hier.NoBit)
	c := hier.New([]string{"top", "c"}, hier.NoBit)
	b := hier.New([]string{"top", "b"}, hier.NoBit)
	db.Insert(a, 0)
	db.Insert(c, 1)
	db.Insert(b, 2)
	db.Hashes[0], db.Hashes[1], db.Hashes[2] = 111, 222, 333

	dir := t.TempDir()
	path := filepath.Join(dir, "db.cbor")
	require.NoError(t, db.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, db.Equal(loaded), "loaded database does not equal the original")

	var order []string
	loaded.Names(func(name hier.Name, slot int) {
		order = append(order, name.String())
	})
	require.Equal(t, []string{"top/a", "top/c", "top/b"}, order)
}

func TestLoadDetectsCorruption(t *testing.T) {
	db := New()
	db.AllocateRange(1)
	db.Insert(hier.New([]string{"top", "x"}, hier.NoBit), 0)

	dir := t.TempDir()
	path := filepath.Join(dir, "db.cbor")
	require.NoError(t, db.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0644))

	_, err = Load(path)
	require.Error(t, err, "expected corruption to be detected")
}
