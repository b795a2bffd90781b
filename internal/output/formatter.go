// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/sheets"
)

// Format represents an output format.
type Format int

const (
	// FormatText is colored human-readable output.
	FormatText Format = iota
	// FormatJSON is JSON output.
	FormatJSON
)

// maxColumnWidth caps table cells; longer values are cut with "~".
const maxColumnWidth = 40

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format
}

// NewWriter creates a new output writer for stdout with the given format.
func NewWriter(format Format) *Writer {
	return NewWriterTo(os.Stdout, format)
}

// NewWriterTo creates an output writer for an arbitrary destination.
func NewWriterTo(dest io.Writer, format Format) *Writer {
	return &Writer{dest: dest, format: format}
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteEnvelope renders a command response. In JSON mode the envelope is written
// unchanged; otherwise each operation gets its own summary.
func (w *Writer) WriteEnvelope(env command.Envelope) error {
	if w.format == FormatJSON {
		return w.WriteJSON(env)
	}
	if !env.Success {
		red := color.New(color.FgRed)
		_, err := red.Fprintf(w.dest, "✗ %s: %s\n", kindLabel(env.Kind), env.Error)
		return err
	}

	green := color.New(color.FgGreen)
	switch command.Operation(env.Operation) {
	case command.WriteCell:
		var r command.WriteResult
		if err := decodeResult(env.Result, &r); err != nil {
			return err
		}
		_, err := green.Fprintf(w.dest, "✓ Wrote %q to %s!%s\n", r.Value, sheets.QuoteSheet(r.Sheet), r.Cell)
		return err

	case command.ReadRange:
		var r command.ReadResult
		if err := decodeResult(env.Result, &r); err != nil {
			return err
		}
		w.Table(fmt.Sprintf("%s!%s", sheets.QuoteSheet(r.Sheet), r.Range), r.Values)
		_, err := color.New(color.FgHiBlack).Fprintf(w.dest, "  (%d rows)\n", r.Rows)
		return err

	case command.AppendRow:
		var r command.AppendResult
		if err := decodeResult(env.Result, &r); err != nil {
			return err
		}
		_, err := green.Fprintf(w.dest, "✓ Appended row %d to %s: %s\n", r.Row, sheets.QuoteSheet(r.Sheet), strings.Join(r.Values, ", "))
		return err

	case command.FindReplace:
		var r command.FindReplaceResult
		if err := decodeResult(env.Result, &r); err != nil {
			return err
		}
		where := sheets.QuoteSheet(r.Sheet)
		if r.Range != "" {
			where += "!" + r.Range
		}
		_, err := green.Fprintf(w.dest, "✓ Replaced %d occurrence(s) of %q with %q on %s\n", r.Occurrences, r.Find, r.Replace, where)
		return err

	case command.ListSheets:
		var r command.ListResult
		if err := decodeResult(env.Result, &r); err != nil {
			return err
		}
		w.List("Sheets", r.Sheets)
		return nil

	default:
		return w.WriteJSON(env.Result)
	}
}

// List prints a titled bullet list.
func (w *Writer) List(title string, items []string) {
	color.New(color.Bold, color.FgCyan).Fprintf(w.dest, "%s (%d)\n", title, len(items))
	if len(items) == 0 {
		color.New(color.FgHiBlack).Fprintln(w.dest, "  (none)")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w.dest, "  • %s\n", item)
	}
}

// Table prints rows with the first row as a header.
func (w *Writer) Table(title string, rows [][]string) {
	headerStyle := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	headerStyle.Fprintf(w.dest, "%s\n", title)
	if len(rows) == 0 {
		dim.Fprintln(w.dest, "  (empty)")
		return
	}

	colWidths := make([]int, 0)
	for _, row := range rows {
		for j, cell := range row {
			for len(colWidths) <= j {
				colWidths = append(colWidths, 0)
			}
			if len(cell) > colWidths[j] {
				colWidths[j] = len(cell)
			}
		}
	}
	for i := range colWidths {
		if colWidths[i] > maxColumnWidth {
			colWidths[i] = maxColumnWidth
		}
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	w.printRow(rows[0], colWidths, color.New(color.Bold))
	dim.Fprint(w.dest, "  ")
	for j, width := range colWidths {
		if j > 0 {
			dim.Fprint(w.dest, "+-")
		}
		dim.Fprint(w.dest, strings.Repeat("-", width+1))
	}
	dim.Fprintln(w.dest)

	for i := 1; i < len(rows); i++ {
		w.printRow(rows[i], colWidths, nil)
	}
}

func (w *Writer) printRow(row []string, colWidths []int, style *color.Color) {
	fmt.Fprint(w.dest, "  ")
	for j := range colWidths {
		if j > 0 {
			fmt.Fprint(w.dest, "| ")
		}
		cell := ""
		if j < len(row) {
			cell = row[j]
		}
		if len(cell) > colWidths[j] {
			cell = cell[:colWidths[j]-1] + "~"
		}
		padded := cell + strings.Repeat(" ", colWidths[j]-len(cell)+1)
		if style != nil {
			style.Fprint(w.dest, padded)
		} else {
			fmt.Fprint(w.dest, padded)
		}
	}
	fmt.Fprintln(w.dest)
}

// decodeResult fills out from a typed result or from the generic map a relay
// response decodes into.
func decodeResult(result any, out any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not encode result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unexpected result shape: %w", err)
	}
	return nil
}

func kindLabel(k command.Kind) string {
	if k == "" {
		return "error"
	}
	return strings.ReplaceAll(string(k), "_", " ")
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
