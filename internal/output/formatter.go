// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Format represents an output format.
type Format int

const (
	// FormatText is plain text output.
	FormatText Format = iota
	// FormatJSON is JSON output.
	FormatJSON
	// FormatCSV is comma-separated output.
	FormatCSV
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return FormatText, fmt.Errorf("unsupported output format %q (use text, json or csv)", s)
}

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format
}

// NewWriter creates a writer on stdout.
func NewWriter(format Format) *Writer {
	return NewWriterTo(os.Stdout, format)
}

// NewWriterTo creates a writer on dest.
func NewWriterTo(dest io.Writer, format Format) *Writer {
	return &Writer{dest: dest, format: format}
}

// Format returns the writer's output format.
func (w *Writer) Format() Format {
	return w.format
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// Success writes a green status line.
func (w *Writer) Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w.dest, format+"\n", args...)
}

// Warn writes a yellow status line.
func (w *Writer) Warn(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(w.dest, format+"\n", args...)
}

// Heading writes a bold cyan line.
func (w *Writer) Heading(s string) {
	color.New(color.Bold, color.FgCyan).Fprintln(w.dest, s)
}

// Size renders a byte count for people, e.g. "8.2 kB".
func Size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
