package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/ncw/gmp"
	"github.com/zugzwang/batchgcd"
	"go.uber.org/zap"
)

var (
	cpuprofile    = flag.String("cpuprofile", "", "write cpu profile to file")
	algorithmName = flag.String("algorithm", "fast", "light|fast|pairwise")
	storeKind     = flag.String("store", "bolt", "bolt|dir: product tree storage backend")
	dataPath      = flag.String("data", "data/product_tree", "location of the persisted product tree")
	workers       = flag.Int("workers", runtime.NumCPU(), "worker goroutines per phase")
)

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	if len(flag.Args()) != 1 {
		log.Fatal("usage: batchgcd [flags] moduli.csv")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	records, err := batchgcd.ReadRecords(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("read moduli", "file", flag.Arg(0), "count", len(records))

	var compromised []batchgcd.Compromised
	switch *algorithmName {
	case "pairwise":
		compromised = runPairwise(records)
	case "light", "fast":
		store, err := openStore(*storeKind, *dataPath)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()

		report, err := batchgcd.Run(records, batchgcd.Config{
			Store:     store,
			Algorithm: batchgcd.Algorithm(*algorithmName),
			Workers:   *workers,
			Log:       log,
		})
		if err != nil {
			log.Fatal(err)
		}
		compromised = report.Compromised
	default:
		log.Fatal("Invalid algorithm: ", *algorithmName)
	}

	for _, c := range compromised {
		fmt.Println(c.Csv())
	}
	log.Infow("finished", "compromised", len(compromised))
}

func runPairwise(records []batchgcd.Record) []batchgcd.Compromised {
	ids := make([]int, len(records))
	moduli := make([]*gmp.Int, len(records))
	for i, r := range records {
		ids[i] = r.ID
		moduli[i] = r.Modulus
	}
	return batchgcd.PairwiseGCD(ids, moduli, *workers)
}

func openStore(kind, path string) (batchgcd.LevelStore, error) {
	switch kind {
	case "bolt":
		return batchgcd.OpenBoltStore(path + ".db")
	case "dir":
		return batchgcd.OpenDirStore(path)
	}
	return nil, fmt.Errorf("invalid store backend %q", kind)
}
