// Package main provides a profiling wrapper for bpsim to identify performance
// bottlenecks in the predictors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/bpsim/compare"
	"github.com/sarchlab/bpsim/engine"
	"github.com/sarchlab/bpsim/trace"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	branches   = flag.Int("branches", 1000000, "branches per synthetic workload")
	workload   = flag.String("workload", "", "only run the named synthetic workload")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <config> [trace-file]\n")
		fmt.Fprintf(os.Stderr, "\nWithout a trace file the synthetic workloads are run.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	config := flag.Arg(0)

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()

	var (
		total uint64
		err   error
	)
	if flag.NArg() > 1 {
		total, err = profileFile(ctx, config, flag.Arg(1))
	} else {
		total, err = profileWorkloads(ctx, config)
	}

	elapsed := time.Since(start)

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if ctx.Err() != nil {
			fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
			os.Exit(2)
		}
		os.Exit(1)
	}

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Predictor: %s\n", config)
	fmt.Printf("Branches simulated: %d\n", total)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if total > 0 {
		fmt.Printf("Branches/second: %.0f\n", float64(total)/elapsed.Seconds())
	}
}

// profileFile runs the predictor over a trace file.
func profileFile(ctx context.Context, config, path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	summary, err := engine.Run(ctx, config, trace.NewReader(f))
	if err != nil {
		return summary.Branches, err
	}

	fmt.Printf("%-20s %s\n", path, summary)
	return summary.Branches, nil
}

// profileWorkloads runs the predictor over every synthetic workload, each
// with a fresh engine.
func profileWorkloads(ctx context.Context, config string) (uint64, error) {
	var total uint64

	for _, w := range compare.GetWorkloads(*branches) {
		if *workload != "" && w.Name != *workload {
			continue
		}

		summary, err := engine.Run(ctx, config, trace.NewSliceSource(w.Records))
		total += summary.Branches
		if err != nil {
			return total, fmt.Errorf("%s: %w", w.Name, err)
		}

		fmt.Printf("%-20s %s\n", w.Name, summary)
	}

	return total, nil
}
