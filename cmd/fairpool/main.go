// ============================================================================
// fairpool - Main Entry Point
// ============================================================================
//
// File: cmd/fairpool/main.go
// Purpose: Application entry point and CLI initialization
//
// Version Injection:
//   Variables injected at build time via -ldflags:
//   go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
//
// Usage:
//   ./fairpool --help
//   ./fairpool serve -c configs/default.yaml
//   ./fairpool ring --actors 503 --hops 1000000
//   ./fairpool pingpong --rounds 100000
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/corvidlabs/fairpool/internal/cli"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
