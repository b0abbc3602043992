// Package main is the entry point for the memegen CLI.
//
// Usage:
//
//	memegen [flags] <command> [args]
//
// Commands:
//
//	recommend  - Rank templates against a topic
//	caption    - Generate captions for a topic
//	templates  - Manage the template collection (list, seed)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/DiscountLegolas/memegen/cmd/memegen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
