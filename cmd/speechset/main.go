// Package main is the entry point for the speechset CLI.
//
// Usage:
//
//	speechset [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config     - Configuration management (contexts, services)
//	add        - Add WAV recordings to a dataset file
//	info       - Summarize a dataset file
//	remove     - Remove examples from a dataset file
//	merge      - Merge dataset files
//	windows    - Show the training windows of a snippet
//	batch      - Assemble a training batch
//	push/pull  - Copy datasets to and from the configured blob storage
//	archive    - Save and restore datasets in the example archive
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/speechset/cmd/speechset/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
