package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
)

// OutputFormat is the rendering of a command result. It implements
// pflag.Value so it can back a --format flag directly.
type OutputFormat string

const (
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatRaw   OutputFormat = "raw"
)

var formats = []OutputFormat{FormatYAML, FormatJSON, FormatTable, FormatRaw}

func (f *OutputFormat) String() string { return string(*f) }

// Set accepts one of yaml, json, table or raw, case-insensitively.
func (f *OutputFormat) Set(s string) error {
	v := OutputFormat(strings.ToLower(s))
	for _, known := range formats {
		if v == known {
			*f = v
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want yaml, json, table or raw)", s)
}

func (f *OutputFormat) Type() string { return "format" }

var _ pflag.Value = (*OutputFormat)(nil)

// Tabular is implemented by results that have a table rendering.
type Tabular interface {
	Table() Table
}

// OutputOptions configures output behavior.
type OutputOptions struct {
	Format OutputFormat

	// File is the output file path (empty for stdout).
	File string

	// Writer overrides File and stdout.
	Writer io.Writer

	// Styles are used by the table format. Zero value uses DefaultTheme.
	Styles *Styles
}

// Output writes the result to the configured destination.
//
// The table format needs a Tabular result; other results fall back to YAML.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout
	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML, "":
		return outputYAML(w, result)
	case FormatTable:
		t, ok := result.(Tabular)
		if !ok {
			return outputYAML(w, result)
		}
		styles := NewStyles(DefaultTheme)
		if opts.Styles != nil {
			styles = *opts.Styles
		}
		_, err := io.WriteString(w, styles.RenderTable(t.Table())+"\n")
		return err
	case FormatRaw:
		switch v := result.(type) {
		case []byte:
			_, err := w.Write(v)
			return err
		case string:
			_, err := io.WriteString(w, v)
			return err
		}
		return outputYAML(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// PrintSuccess prints a success message with checkmark to w.
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintWarning prints a warning message to w.
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ "+format+"\n", args...)
}
