package batchgcd

import (
	"runtime"
	"sync"

	"github.com/ncw/gmp"
)

// PairwiseGCD is the naive quadratic audit: every modulus is tested
// against every other. It reports the same compromised set as the tree
// pipeline and exists as an independent reference for it, practical
// only for small batches.
func PairwiseGCD(ids []int, moduli []*gmp.Int, workers int) []Compromised {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	factors := make([]*gmp.Int, len(moduli))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go pairwiseRange(moduli, factors, &wg, w, workers)
	}
	wg.Wait()

	var compromised []Compromised
	for i, g := range factors {
		if g != nil {
			compromised = append(compromised, Compromised{
				ID:      ids[i],
				Modulus: moduli[i],
				Factor:  g,
			})
		}
	}
	return compromised
}

func pairwiseRange(moduli, factors []*gmp.Int, wg *sync.WaitGroup, start, step int) {
	gcd := gmp.NewInt(0)
	for i := start; i < len(moduli); i += step {
		for j := 0; j < len(moduli); j++ {
			if j == i {
				continue
			}
			if gcd.GCD(nil, nil, moduli[i], moduli[j]).BitLen() != 1 {
				factors[i] = gcd
				gcd = gmp.NewInt(0) // flagged gcd can't be overwritten
				break
			}
		}
	}
	wg.Done()
}
