package batchgcd

import (
	"fmt"
	"time"

	"github.com/ncw/gmp"
	"go.uber.org/zap"
)

// Algorithm selects how the remainder phase is computed.
type Algorithm string

const (
	// Light reads only the leaves and the root, reducing the full
	// product directly against each squared modulus.
	Light Algorithm = "light"
	// Fast re-reads every persisted level and cascades progressively
	// smaller reductions down the tree. More I/O and transient memory,
	// much less total arithmetic on large batches.
	Fast Algorithm = "fast"
)

// Config drives a pipeline run.
type Config struct {
	Store     LevelStore
	Algorithm Algorithm // defaults to Fast
	Workers   int       // defaults to runtime.NumCPU()
	Log       *zap.SugaredLogger
}

// Report is the outcome of a completed audit.
type Report struct {
	Total       int
	Compromised []Compromised

	BuildElapsed     time.Duration
	RemainderElapsed time.Duration
	GCDElapsed       time.Duration
}

// Run executes the full audit over records: product tree build,
// remainder computation, final GCD extraction. The phases run strictly
// in sequence and communicate only through the store, so a tree built
// by one invocation can be consumed by another. Run takes ownership of
// the records' modulus values; they are released during the build.
//
// Any error is terminal: no partial results are returned.
func Run(records []Record, cfg Config) (*Report, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ids := make([]int, len(records))
	moduli := make([]*gmp.Int, len(records))
	for i := range records {
		ids[i] = records[i].ID
		moduli[i] = records[i].Modulus
		records[i].Modulus = nil
	}
	report := &Report{Total: len(ids)}

	start := time.Now()
	levels, err := BuildProductTree(cfg.Store, moduli, cfg.Workers, log)
	if err != nil {
		return nil, fmt.Errorf("building product tree: %w", err)
	}
	report.BuildElapsed = time.Since(start)
	log.Infow("product tree phase done", "levels", levels, "elapsed", report.BuildElapsed)

	start = time.Now()
	var rems []*gmp.Int
	switch cfg.Algorithm {
	case Light:
		rems, err = RemainderSquares(cfg.Store, cfg.Workers, log)
	case Fast, "":
		rems, err = RemainderSquaresFast(cfg.Store, cfg.Workers, log)
	default:
		return nil, fmt.Errorf("unknown remainder algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("computing remainders: %w", err)
	}
	report.RemainderElapsed = time.Since(start)
	log.Infow("remainder phase done", "elapsed", report.RemainderElapsed)

	start = time.Now()
	compromised, err := FinalGCD(cfg.Store, ids, rems, cfg.Workers, log)
	if err != nil {
		return nil, fmt.Errorf("extracting gcds: %w", err)
	}
	report.GCDElapsed = time.Since(start)
	report.Compromised = compromised
	log.Infow("gcd phase done",
		"moduli", report.Total, "compromised", len(compromised), "elapsed", report.GCDElapsed)

	return report, nil
}
