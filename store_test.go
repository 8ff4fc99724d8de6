package batchgcd

import (
	cryptorand "crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelStoreRoundTrip(t *testing.T) {
	raw := make([]byte, 512)
	_, err := cryptorand.Read(raw)
	require.NoError(t, err)

	level0 := []*gmp.Int{gi(15), gi(21), gi(0), new(gmp.Int).SetBytes(raw)}
	level1 := []*gmp.Int{gi(315), gi(22)}

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.WriteLevel(0, level0))
			require.NoError(t, store.WriteLevel(1, level1))

			got, err := store.ReadLevel(0)
			require.NoError(t, err)
			require.Len(t, got, len(level0))
			for i := range level0 {
				assert.Zero(t, level0[i].Cmp(got[i]), "level 0 position %d", i)
			}

			x, err := store.ReadElement(1, 1)
			require.NoError(t, err)
			assert.Zero(t, gi(22).Cmp(x))

			count, err := store.Shape(0)
			require.NoError(t, err)
			assert.Equal(t, len(level0), count)

			levels, err := store.Levels()
			require.NoError(t, err)
			assert.Equal(t, 2, levels)
		})
	}
}

func TestLevelStoreMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.WriteLevel(0, []*gmp.Int{gi(15), gi(21)}))

			_, err := store.ReadLevel(3)
			assert.ErrorIs(t, err, ErrMissingLevel)

			_, err = store.ReadElement(0, 99)
			assert.ErrorIs(t, err, ErrMissingLevel)

			_, err = store.Shape(5)
			assert.ErrorIs(t, err, ErrMissingLevel)
		})
	}
}

func TestLevelStoreOverwrite(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.WriteLevel(0, []*gmp.Int{gi(2), gi(3), gi(5), gi(7), gi(11)}))
			require.NoError(t, store.WriteLevel(0, []*gmp.Int{gi(13), gi(17)}))

			got, err := store.ReadLevel(0)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Zero(t, gi(13).Cmp(got[0]))
			assert.Zero(t, gi(17).Cmp(got[1]))
		})
	}
}

func TestLevelStoreTruncate(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.WriteLevel(0, []*gmp.Int{gi(15), gi(21), gi(22)}))
			require.NoError(t, store.WriteLevel(1, []*gmp.Int{gi(315), gi(22)}))
			require.NoError(t, store.WriteLevel(2, []*gmp.Int{gi(6930)}))

			require.NoError(t, store.Truncate(2))

			levels, err := store.Levels()
			require.NoError(t, err)
			assert.Equal(t, 2, levels)

			_, err = store.Shape(2)
			assert.ErrorIs(t, err, ErrMissingLevel)
			_, err = store.ReadLevel(2)
			assert.ErrorIs(t, err, ErrMissingLevel)

			// Levels below the cut survive untouched.
			got, err := store.ReadLevel(1)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Zero(t, gi(315).Cmp(got[0]))
		})
	}
}

func TestLevelStoreRecordShapeZero(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.RecordShape(0, 0))

			count, err := store.Shape(0)
			require.NoError(t, err)
			assert.Equal(t, 0, count)

			_, err = store.Shape(1)
			assert.ErrorIs(t, err, ErrMissingLevel)
		})
	}
}

// Shape and levels must survive a process restart; reopening the store
// stands in for that here.
func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteLevel(0, []*gmp.Int{gi(15), gi(21), gi(22)}))
	require.NoError(t, s.WriteLevel(1, []*gmp.Int{gi(315), gi(22)}))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	levels, err := s.Levels()
	require.NoError(t, err)
	assert.Equal(t, 2, levels)

	count, err := s.Shape(0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	x, err := s.ReadElement(1, 0)
	require.NoError(t, err)
	assert.Zero(t, gi(315).Cmp(x))
}

func TestDirStoreReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tree")

	s, err := OpenDirStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.WriteLevel(0, []*gmp.Int{gi(15), gi(21), gi(22)}))
	require.NoError(t, s.WriteLevel(1, []*gmp.Int{gi(315), gi(22)}))
	require.NoError(t, s.Close())

	s, err = OpenDirStore(dir)
	require.NoError(t, err)

	levels, err := s.Levels()
	require.NoError(t, err)
	assert.Equal(t, 2, levels)

	got, err := s.ReadLevel(1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Zero(t, gi(315).Cmp(got[0]))
}

func TestDirStoreRejectsCorruptElement(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tree")
	s, err := OpenDirStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.WriteLevel(0, []*gmp.Int{gi(15)}))

	// Truncate the artifact mid-frame.
	path := s.elementPath(0, 0)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-1], 0644))

	_, err = s.ReadElement(0, 0)
	assert.ErrorIs(t, err, ErrDecode)
}
