package batchgcd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ncw/gmp"
	"go.uber.org/zap"
)

// RemainderSquares computes rem_i = Z mod X_i² for every leaf X_i,
// where Z is the root product. It reads only level 0 and the root from
// the store: minimal I/O, but every reduction runs against the
// full-size Z.
func RemainderSquares(store LevelStore, workers int, log *zap.SugaredLogger) ([]*gmp.Int, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	levels, err := store.Levels()
	if err != nil {
		return nil, err
	}
	leaves, err := store.ReadLevel(0)
	if err != nil {
		return nil, fmt.Errorf("reading leaves: %w", err)
	}
	root, err := store.ReadElement(levels-1, 0)
	if err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}
	log.Infow("computing remainders of squares",
		"moduli", len(leaves), "root_bits", root.BitLen())

	rems := make([]*gmp.Int, len(leaves))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go remainderSquaresRange(root, leaves, rems, &wg, w, workers)
	}
	wg.Wait()
	return rems, nil
}

func remainderSquaresRange(root *gmp.Int, leaves, rems []*gmp.Int, wg *sync.WaitGroup, start, step int) {
	tmp := new(gmp.Int)
	for i := start; i < len(leaves); i += step {
		tmp.Mul(leaves[i], leaves[i])
		rems[i] = new(gmp.Int).Rem(root, tmp)
	}
	wg.Done()
}

// RemainderSquaresFast computes the same remainders by cascading
// reductions down the persisted tree: the partial remainder at each
// node is the parent's partial reduced mod the node's square. Every
// level is re-read from the store, and the first iteration transiently
// holds root-sized partials, but each reduction runs against a far
// smaller modulus than Z.
//
// The top level of the store must hold exactly one element; anything
// else means the prior build is corrupt or truncated and the call fails
// with ErrIncompleteTree before producing any output.
func RemainderSquaresFast(store LevelStore, workers int, log *zap.SugaredLogger) ([]*gmp.Int, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	levels, err := store.Levels()
	if err != nil {
		return nil, err
	}
	partial, err := store.ReadLevel(levels - 1)
	if err != nil {
		return nil, fmt.Errorf("reading root level: %w", err)
	}
	if len(partial) != 1 {
		return nil, fmt.Errorf("%w: level %d holds %d elements, want 1", ErrIncompleteTree, levels-1, len(partial))
	}

	for l := levels - 2; l >= 0; l-- {
		count, err := store.Shape(l)
		if err != nil {
			return nil, err
		}
		log.Infow("computing partial remainders",
			"step", levels-2-l, "of", levels-2, "elements", count)

		next := make([]*gmp.Int, count)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go remainderCascadeRange(store, l, partial, next, errs, &wg, w, workers)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		partial = next
	}
	return partial, nil
}

func remainderCascadeRange(store LevelStore, level int, partial, next []*gmp.Int, errs []error, wg *sync.WaitGroup, start, step int) {
	defer wg.Done()
	sq := new(gmp.Int)
	for i := start; i < len(next); i += step {
		x, err := store.ReadElement(level, i)
		if err != nil {
			errs[start] = err
			return
		}
		sq.Mul(x, x)
		next[i] = x.Rem(partial[i/2], sq)
	}
}
