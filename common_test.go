package batchgcd

import (
	cryptorand "crypto/rand"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/require"
)

func gi(v int64) *gmp.Int { return gmp.NewInt(v) }

func gmpFromBig(x *big.Int) *gmp.Int { return new(gmp.Int).SetBytes(x.Bytes()) }

// testStores returns one fresh store per backend, each rooted in its
// own temp dir.
func testStores(t *testing.T) map[string]LevelStore {
	t.Helper()
	bs, err := OpenBoltStore(filepath.Join(t.TempDir(), "tree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })
	ds, err := OpenDirStore(filepath.Join(t.TempDir(), "tree"))
	require.NoError(t, err)
	return map[string]LevelStore{"bolt": bs, "dir": ds}
}

// testPrimes generates n distinct random primes of the given bit size.
func testPrimes(t *testing.T, n, bits int) []*gmp.Int {
	t.Helper()
	primes := make([]*gmp.Int, n)
	for i := range primes {
		p, err := cryptorand.Prime(cryptorand.Reader, bits)
		require.NoError(t, err)
		primes[i] = gmpFromBig(p)
	}
	return primes
}
