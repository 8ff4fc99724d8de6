package batchgcd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ncw/gmp"
	"go.uber.org/zap"
)

// FinalGCD converts the per-leaf remainders into the compromised-key
// report. For each leaf X_i it divides rem_i by X_i and takes
// gcd(rem_i/X_i, X_i); a gcd above 1 marks the key as sharing a factor
// with at least one other modulus in the batch. The tree construction
// guarantees the division is exact, so a nonzero division remainder
// fails the whole run with ErrInexactDivision.
//
// The leaves are reloaded from level 0 of the store; the builder
// destroyed the caller's copy. ids carries the original record IDs in
// input order.
func FinalGCD(store LevelStore, ids []int, rems []*gmp.Int, workers int, log *zap.SugaredLogger) ([]Compromised, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	moduli, err := store.ReadLevel(0)
	if err != nil {
		return nil, fmt.Errorf("reading leaves: %w", err)
	}
	if len(moduli) != len(rems) || len(ids) != len(rems) {
		return nil, fmt.Errorf("mismatched inputs: %d ids, %d moduli, %d remainders",
			len(ids), len(moduli), len(rems))
	}
	log.Infow("computing final gcds", "moduli", len(moduli))

	gcds := make([]*gmp.Int, len(moduli))
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go finalGCDRange(moduli, rems, gcds, errs, &wg, w, workers)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var compromised []Compromised
	for i, g := range gcds {
		if g != nil {
			compromised = append(compromised, Compromised{
				ID:      ids[i],
				Modulus: moduli[i],
				Factor:  g,
			})
		}
	}
	return compromised, nil
}

func finalGCDRange(moduli, rems, gcds []*gmp.Int, errs []error, wg *sync.WaitGroup, start, step int) {
	defer wg.Done()
	r := new(gmp.Int)
	for i := start; i < len(moduli); i += step {
		q := new(gmp.Int)
		q.QuoRem(rems[i], moduli[i], r)
		if r.BitLen() != 0 {
			errs[start] = fmt.Errorf("%w: position %d", ErrInexactDivision, i)
			return
		}
		// There's only one positive number with a BitLen of 1.
		if q.GCD(nil, nil, q, moduli[i]).BitLen() != 1 {
			gcds[i] = q
		}
	}
}
