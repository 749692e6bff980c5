// Command bpsim runs a branch predictor over a branch trace and prints the
// misprediction summary.
//
// Usage:
//
//	bpsim [flags] <config>
//	bpsim compare [flags] <trace>...
//
// The configuration is one of
//
//	static
//	gshare:<historyBits>
//	tournament:<globalBits>:<localHistoryBits>:<pcIndexBits>
//
// optionally prefixed with "--". The trace is read from stdin unless --trace
// is given.
//
// Example:
//
//	bunzip2 -kc traces/fp_1.bz2 | bpsim gshare:13
//	bpsim compare -p gshare:13 -p tournament:9:10:10 int_1.trace int_2.trace
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// A missing .env file is fine; defaults then come from the environment.
	_ = godotenv.Load()

	cmd := newRootCmd()
	cmd.SetArgs(normalizeArgs(os.Args[1:]))

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
