// Package build holds version information injected at link time.
package build

import "fmt"

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns the human-readable version line.
func String() string {
	return fmt.Sprintf("memegen %s (%s)", Version, Commit)
}
