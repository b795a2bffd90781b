// Package workbook implements the spreadsheet client over a local .xlsx file.
//
// The file is opened on every call and saved after every mutation, so edits made by
// other programs between calls are picked up and nothing is held in memory.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/sheetsense/internal/sheets"
)

// Client reads and writes one .xlsx workbook.
type Client struct {
	path string
}

var _ sheets.Client = (*Client)(nil)

// Open returns a client for an existing workbook.
func Open(path string) (*Client, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sheets.NotFound("workbook %s", path)
		}
		return nil, fmt.Errorf("could not stat %s: %w", path, err)
	}
	return &Client{path: abs}, nil
}

// Tab is the initial content of one worksheet.
type Tab struct {
	Name string
	Rows [][]string
}

// Create writes a new workbook at path with the given tabs, in order.
func Create(path string, tabs ...Tab) error {
	if len(tabs) == 0 {
		tabs = []Tab{{Name: "Sheet1"}}
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, tab := range tabs {
		name := tab.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("could not rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("could not create sheet %q: %w", name, err)
		}
		for r, row := range tab.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return fmt.Errorf("invalid cell coordinates: %w", err)
			}
			values := row
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return fmt.Errorf("could not write row %d of %q: %w", r+1, name, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save %s: %w", path, err)
	}
	return nil
}

// SpreadsheetID returns the absolute path of the workbook.
func (c *Client) SpreadsheetID() string {
	return c.path
}

// Path returns the absolute path of the workbook.
func (c *Client) Path() string {
	return c.path
}

func (c *Client) open(ctx context.Context) (*excelize.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sheets.NotFound("workbook %s", c.path)
		}
		return nil, fmt.Errorf("could not open %s (is this a valid .xlsx file?): %w", c.path, err)
	}
	return f, nil
}

func requireSheet(f *excelize.File, name string) error {
	list := f.GetSheetList()
	if sheets.Contains(list, name) {
		return nil
	}
	return sheets.NotFound("sheet %q (available sheets: %s)", name, strings.Join(list, ", "))
}

// ListSheets returns tab names in workbook order.
func (c *Client) ListSheets(ctx context.Context) ([]string, error) {
	f, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadRange returns the values in ref, trimmed of trailing empty cells and rows.
// A ref without a range reads the whole used area of the tab.
func (c *Client) ReadRange(ctx context.Context, ref sheets.Ref) ([][]string, error) {
	f, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := requireSheet(f, ref.Sheet); err != nil {
		return nil, err
	}

	rows, err := f.GetRows(ref.Sheet)
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", ref.Sheet, err)
	}
	if ref.Range == nil {
		return sheets.TrimGrid(rows), nil
	}

	// only the used area can hold values; the rest of the range reads as empty
	r := ref.Range
	lastRow := min(r.End.Row, len(rows))
	var grid [][]string
	for row := r.Start.Row; row <= lastRow; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := rows[row-1]
		lastCol := min(r.End.Col, len(src))
		line := []string{}
		for col := r.Start.Col; col <= lastCol; col++ {
			line = append(line, src[col-1])
		}
		grid = append(grid, line)
	}
	return sheets.TrimGrid(grid), nil
}

// WriteCell sets the top-left cell of ref to value and saves the workbook.
func (c *Client) WriteCell(ctx context.Context, ref sheets.Ref, value string) (int, error) {
	if ref.Range == nil {
		return 0, fmt.Errorf("write requires a cell address")
	}
	f, err := c.open(ctx)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := requireSheet(f, ref.Sheet); err != nil {
		return 0, err
	}
	cell := ref.Range.Start.String()
	if err := f.SetCellValue(ref.Sheet, cell, value); err != nil {
		return 0, fmt.Errorf("could not set cell %s: %w", cell, err)
	}
	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("could not save %s: %w", c.path, err)
	}
	return 1, nil
}

// AppendRow writes values into the row after the last non-empty row of sheet.
func (c *Client) AppendRow(ctx context.Context, sheet string, values []string) (sheets.AppendResult, error) {
	f, err := c.open(ctx)
	if err != nil {
		return sheets.AppendResult{}, err
	}
	defer f.Close()

	if err := requireSheet(f, sheet); err != nil {
		return sheets.AppendResult{}, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return sheets.AppendResult{}, fmt.Errorf("could not read sheet %q: %w", sheet, err)
	}
	next := len(sheets.TrimGrid(rows)) + 1

	start := sheets.Cell{Col: 1, Row: next}
	row := values
	if err := f.SetSheetRow(sheet, start.String(), &row); err != nil {
		return sheets.AppendResult{}, fmt.Errorf("could not append to %q: %w", sheet, err)
	}
	if err := f.Save(); err != nil {
		return sheets.AppendResult{}, fmt.Errorf("could not save %s: %w", c.path, err)
	}

	end := sheets.Cell{Col: max(len(values), 1), Row: next}
	written := sheets.Ref{Sheet: sheet, Range: &sheets.Range{Start: start, End: end}}
	return sheets.AppendResult{
		Row:          next,
		UpdatedRange: written.A1(),
		UpdatedCells: len(values),
	}, nil
}

// FindReplace substitutes every occurrence of find inside cell text within ref
// (or the whole tab when ref has no range) and returns the number of occurrences replaced.
func (c *Client) FindReplace(ctx context.Context, ref sheets.Ref, find, replace string) (int, error) {
	if find == "" {
		return 0, fmt.Errorf("find text must not be empty")
	}
	f, err := c.open(ctx)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := requireSheet(f, ref.Sheet); err != nil {
		return 0, err
	}
	rows, err := f.GetRows(ref.Sheet)
	if err != nil {
		return 0, fmt.Errorf("could not read sheet %q: %w", ref.Sheet, err)
	}

	occurrences := 0
	for r, row := range rows {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		for col, v := range row {
			cell := sheets.Cell{Col: col + 1, Row: r + 1}
			if ref.Range != nil && !ref.Range.Contains(cell) {
				continue
			}
			n := strings.Count(v, find)
			if n == 0 {
				continue
			}
			if err := f.SetCellValue(ref.Sheet, cell.String(), strings.ReplaceAll(v, find, replace)); err != nil {
				return 0, fmt.Errorf("could not set cell %s: %w", cell, err)
			}
			occurrences += n
		}
	}

	if occurrences > 0 {
		if err := f.Save(); err != nil {
			return 0, fmt.Errorf("could not save %s: %w", c.path, err)
		}
	}
	return occurrences, nil
}

// Discover lists the .xlsx workbooks next to the configured one.
func (c *Client) Discover(ctx context.Context) ([]sheets.Spreadsheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Dir(c.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list %s: %w", dir, err)
	}
	var out []sheets.Spreadsheet
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		s := sheets.Spreadsheet{
			ID:   filepath.Join(dir, e.Name()),
			Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
		}
		if info, err := e.Info(); err == nil {
			s.CreatedTime = info.ModTime()
		}
		out = append(out, s)
	}
	return out, nil
}
