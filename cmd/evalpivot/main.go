package main

import (
	"fmt"
	"os"
)

// ============================================================================
// EVALPIVOT CLI — Pivot tables over evaluation-run JSON
// ============================================================================

const version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
