package batchgcd

import (
	"path/filepath"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedShape replays the halving-with-carry recurrence.
func expectedShape(n int) []int {
	shape := []int{n}
	for n > 1 {
		n = (n + 1) / 2
		shape = append(shape, n)
	}
	return shape
}

func TestBuildProductTreeShape(t *testing.T) {
	for n := 1; n <= 17; n++ {
		store, err := OpenDirStore(filepath.Join(t.TempDir(), "tree"))
		require.NoError(t, err)

		moduli := make([]*gmp.Int, n)
		product := gi(1)
		for i := range moduli {
			moduli[i] = gi(int64(2*i + 3))
			product.Mul(product, moduli[i])
		}

		levels, err := BuildProductTree(store, moduli, 3, nil)
		require.NoError(t, err)

		want := expectedShape(n)
		require.Equal(t, len(want), levels, "n=%d", n)
		for l, count := range want {
			got, err := store.Shape(l)
			require.NoError(t, err)
			assert.Equal(t, count, got, "n=%d level %d", n, l)
		}

		root, err := store.ReadElement(levels-1, 0)
		require.NoError(t, err)
		assert.Zero(t, product.Cmp(root), "n=%d root", n)
	}
}

func TestBuildProductTreeOddCarry(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			levels, err := BuildProductTree(store, []*gmp.Int{gi(3), gi(5), gi(7)}, 2, nil)
			require.NoError(t, err)
			require.Equal(t, 3, levels)

			level1, err := store.ReadLevel(1)
			require.NoError(t, err)
			require.Len(t, level1, 2)
			assert.Zero(t, gi(15).Cmp(level1[0]))
			// The orphan leaf is carried up unmultiplied.
			assert.Zero(t, gi(7).Cmp(level1[1]))

			root, err := store.ReadElement(2, 0)
			require.NoError(t, err)
			assert.Zero(t, gi(105).Cmp(root))
		})
	}
}

func TestBuildProductTreeSingleModulus(t *testing.T) {
	store, err := OpenDirStore(filepath.Join(t.TempDir(), "tree"))
	require.NoError(t, err)

	levels, err := BuildProductTree(store, []*gmp.Int{gi(77)}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, levels)

	root, err := store.ReadElement(0, 0)
	require.NoError(t, err)
	assert.Zero(t, gi(77).Cmp(root))
}

func TestBuildProductTreeEmptyInput(t *testing.T) {
	store, err := OpenDirStore(filepath.Join(t.TempDir(), "tree"))
	require.NoError(t, err)

	_, err = BuildProductTree(store, nil, 1, nil)
	assert.ErrorIs(t, err, ErrNoModuli)
}

// Rebuilding in a store that already holds a taller tree must drop the
// old upper levels; otherwise the stale root shadows the new one and
// the remainder phase reduces against the wrong product.
func TestBuildProductTreeReusedStore(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := BuildProductTree(store, []*gmp.Int{gi(15), gi(21), gi(22), gi(35)}, 2, nil)
			require.NoError(t, err)

			levels, err := BuildProductTree(store, []*gmp.Int{gi(15), gi(77)}, 2, nil)
			require.NoError(t, err)
			require.Equal(t, 2, levels)

			stored, err := store.Levels()
			require.NoError(t, err)
			assert.Equal(t, 2, stored)

			root, err := store.ReadElement(1, 0)
			require.NoError(t, err)
			assert.Zero(t, gi(1155).Cmp(root))

			rems, err := RemainderSquaresFast(store, 2, nil)
			require.NoError(t, err)
			compromised, err := FinalGCD(store, []int{0, 1}, rems, 2, nil)
			require.NoError(t, err)
			// 15 and 77 are coprime; nothing may be reported.
			assert.Empty(t, compromised)
		})
	}
}

func TestBuildProductTreeReleasesInput(t *testing.T) {
	store, err := OpenDirStore(filepath.Join(t.TempDir(), "tree"))
	require.NoError(t, err)

	moduli := []*gmp.Int{gi(15), gi(21), gi(22), gi(35)}
	_, err = BuildProductTree(store, moduli, 2, nil)
	require.NoError(t, err)

	for i, m := range moduli {
		assert.Nil(t, m, "leaf %d still referenced after build", i)
	}
}
