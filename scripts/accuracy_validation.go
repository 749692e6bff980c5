// Package main provides accuracy validation for performance optimizations.
// Ensures that optimizations preserve predictor behavior.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/sarchlab/bpsim/compare"
	"github.com/sarchlab/bpsim/engine"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// testReferenceRun validates the hand-computed gshare:2 reference trace.
func testReferenceRun() bool {
	fmt.Println("Testing reference gshare run...")

	records := []trace.Record{
		{Addr: 0x4, Taken: false},
		{Addr: 0x4, Taken: false},
		{Addr: 0x4, Taken: true},
		{Addr: 0x4, Taken: false},
	}

	summary, err := engine.Run(context.Background(), "gshare:2",
		trace.NewSliceSource(records))
	if err != nil {
		fmt.Printf("❌ Reference run failed: %v\n", err)
		return false
	}

	if summary.Branches != 4 || summary.Mispredictions != 1 {
		fmt.Printf("❌ Reference run mismatch: %s\n", summary)
		return false
	}

	fmt.Printf("✅ %s\n", summary)
	return true
}

// testTextRoundTrip validates that the text trace path and the in-memory
// path produce identical summaries.
func testTextRoundTrip() bool {
	fmt.Println("\nTesting trace text round trip...")

	for _, w := range compare.GetCoreWorkloads(20000) {
		var buf bytes.Buffer
		if err := trace.Write(&buf, w.Records); err != nil {
			fmt.Printf("❌ %s: write failed: %v\n", w.Name, err)
			return false
		}

		config := predictor.DefaultTournamentConfig().String()
		fromText, err1 := engine.Run(context.Background(), config, trace.NewReader(&buf))
		fromSlice, err2 := engine.Run(context.Background(), config,
			trace.NewSliceSource(w.Records))

		if err1 != nil || err2 != nil || fromText != fromSlice {
			fmt.Printf("❌ %s: text %v (%v), slice %v (%v)\n",
				w.Name, fromText, err1, fromSlice, err2)
			return false
		}

		fmt.Printf("✅ %s: %s\n", w.Name, fromText)
	}

	return true
}

// testParallelConsistency validates that the parallel harness produces the
// same summaries as sequential engine runs.
func testParallelConsistency() bool {
	fmt.Println("\nTesting parallel harness consistency...")

	workloads := compare.GetWorkloads(20000)
	configs := append(compare.DefaultPredictors(), predictor.MustParseConfig("static"))

	h := compare.NewHarness(compare.HarnessConfig{Jobs: 0, Output: os.Stdout})
	h.AddTraces(compare.WorkloadTraces(workloads))
	h.AddPredictors(configs)

	results, err := h.RunAll(context.Background())
	if err != nil {
		fmt.Printf("❌ Harness failed: %v\n", err)
		return false
	}

	i := 0
	for _, w := range workloads {
		for _, c := range configs {
			want, err := engine.Run(context.Background(), c.String(),
				trace.NewSliceSource(w.Records))
			if err != nil || results[i].Summary != want {
				fmt.Printf("❌ %s on %s: harness %v, sequential %v\n",
					c, w.Name, results[i].Summary, want)
				return false
			}
			i++
		}
	}

	h.PrintResults(results)
	fmt.Println("✅ Parallel results match sequential runs")
	return true
}

// testPredictorDeterminism validates that two fresh predictors with the same
// configuration make identical predictions.
func testPredictorDeterminism() bool {
	fmt.Println("\nTesting predictor determinism...")

	records := compare.GetWorkloads(5000)[5].Records

	for _, c := range compare.DefaultPredictors() {
		p1, err1 := predictor.New(c)
		p2, err2 := predictor.New(c)
		if err1 != nil || err2 != nil {
			fmt.Printf("❌ %s: %v %v\n", c, err1, err2)
			return false
		}

		for i, r := range records {
			if p1.Predict(r.Addr) != p2.Predict(r.Addr) {
				fmt.Printf("❌ %s: prediction mismatch at branch %d (pc 0x%X)\n",
					c, i+1, r.Addr)
				return false
			}
			p1.Update(r.Addr, r.Taken)
			p2.Update(r.Addr, r.Taken)
		}

		fmt.Printf("✅ %s: %d predictions consistent\n", c, len(records))
	}

	return true
}

func main() {
	fmt.Println("bpsim Accuracy Validation - Performance Optimization")
	fmt.Println("=======================================================")

	allPassed := true

	if !testReferenceRun() {
		allPassed = false
	}

	if !testTextRoundTrip() {
		allPassed = false
	}

	if !testParallelConsistency() {
		allPassed = false
	}

	if !testPredictorDeterminism() {
		allPassed = false
	}

	fmt.Println("\n=======================================================")
	if allPassed {
		fmt.Println("🎉 ALL ACCURACY TESTS PASSED")
		fmt.Println("✅ Performance optimizations preserve predictor behavior")
		os.Exit(0)
	} else {
		fmt.Println("❌ ACCURACY TESTS FAILED")
		fmt.Println("🚨 Performance optimizations may have introduced errors")
		os.Exit(1)
	}
}
