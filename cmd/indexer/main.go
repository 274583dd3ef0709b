// Package main is the entry point for indexctl, the offline tool that builds
// and publishes exercise index snapshots.
package main

import (
	"os"

	"ironready/coach-api/cmd/indexer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
