package batchgcd

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ncw/gmp"
	"go.uber.org/zap"
)

// BuildProductTree builds the product tree of moduli bottom-up and
// persists every level, including the single-element root, to the
// store. It returns the number of levels in the tree.
//
// The builder takes ownership of moduli: entries are released as soon
// as they have been persisted and consumed into the next level, which
// bounds peak memory to roughly two adjacent levels. Callers that need
// the leaves afterwards must reload them from level 0 of the store.
func BuildProductTree(store LevelStore, moduli []*gmp.Int, workers int, log *zap.SugaredLogger) (int, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if len(moduli) == 0 {
		return 0, ErrNoModuli
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	current := moduli
	level := 0
	for len(current) > 1 {
		if err := store.WriteLevel(level, current); err != nil {
			return 0, fmt.Errorf("persisting level %d: %w", level, err)
		}
		log.Infow("multiplying product tree level",
			"level", level, "elements", len(current), "bits", current[0].BitLen())

		next := make([]*gmp.Int, (len(current)+1)/2)
		if len(current)%2 != 0 {
			// Odd tail: carried up unmultiplied.
			next[len(next)-1] = current[len(current)-1]
		}

		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go productTreeLevel(current, next, &wg, w, workers)
		}
		wg.Wait()

		// The consumed level lives on in the store only.
		for i := range current {
			current[i] = nil
		}
		current = next
		level++
	}

	if err := store.WriteLevel(level, current); err != nil {
		return 0, fmt.Errorf("persisting root level %d: %w", level, err)
	}
	// A previous, taller build may have left levels above this root in
	// the store; they would shadow it as the tree top.
	if err := store.Truncate(level + 1); err != nil {
		return 0, err
	}
	log.Infow("product tree root persisted", "level", level, "bits", current[0].BitLen())
	return level + 1, nil
}

func productTreeLevel(input, output []*gmp.Int, wg *sync.WaitGroup, start, step int) {
	for i := start; i < len(input)/2; i += step {
		j := i * 2
		output[i] = new(gmp.Int).Mul(input[j], input[j+1])
	}
	wg.Done()
}
