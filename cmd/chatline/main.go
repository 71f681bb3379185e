// Package main is the entry point for the chatline client.
package main

import (
	"fmt"
	"os"

	"github.com/chatline-im/chatline/internal/tui"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var _ = []string{commit, date}

func main() {
	if err := tui.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
