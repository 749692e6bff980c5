// Package main provides the entry point for bpsim.
// bpsim is a trace-driven branch predictor simulator built on Akita.
//
// For the full CLI, use: go run ./cmd/bpsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("bpsim - Branch Predictor Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: bpsim [flags] <config>")
	fmt.Println("       bpsim compare [flags] <trace>...")
	fmt.Println("")
	fmt.Println("Configurations:")
	fmt.Println("  static")
	fmt.Println("  gshare:<historyBits>")
	fmt.Println("  tournament:<globalBits>:<localHistoryBits>:<pcIndexBits>")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/bpsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/bpsim' instead.")
	}
}
