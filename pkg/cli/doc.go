// Package cli holds the terminal helpers shared by the speechset commands.
//
// It renders command results as YAML, JSON, raw bytes or a styled table,
// loads YAML/JSON request files, and formats sizes and durations for
// humans.
//
//	cli.Output(summary, cli.OutputOptions{
//	    Format: cli.FormatTable,
//	    File:   outputPath,
//	})
package cli
