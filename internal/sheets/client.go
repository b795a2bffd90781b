// Package sheets defines the spreadsheet capability the dispatcher drives, along
// with A1 addressing helpers shared by every backend.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a spreadsheet, tab or range does not exist.
var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with a description of what was missing.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// AppendResult describes where an appended row landed.
type AppendResult struct {
	Row          int    `json:"row"`
	UpdatedRange string `json:"updated_range"`
	UpdatedCells int    `json:"updated_cells"`
}

// Client is the set of spreadsheet calls the dispatcher can make.
// Implementations perform exactly one upstream call sequence per method and never retry.
type Client interface {
	SpreadsheetID() string
	ListSheets(ctx context.Context) ([]string, error)
	ReadRange(ctx context.Context, ref Ref) ([][]string, error)
	WriteCell(ctx context.Context, ref Ref, value string) (int, error)
	AppendRow(ctx context.Context, sheet string, values []string) (AppendResult, error)
	FindReplace(ctx context.Context, ref Ref, find, replace string) (int, error)
}

// Spreadsheet is a document visible to the configured credentials.
type Spreadsheet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url,omitempty"`
	CreatedTime time.Time `json:"created_time,omitempty"`
}

// Discoverer lists spreadsheets the client can reach.
type Discoverer interface {
	Discover(ctx context.Context) ([]Spreadsheet, error)
}

// Contains reports whether name is one of the tabs.
func Contains(tabs []string, name string) bool {
	for _, t := range tabs {
		if t == name {
			return true
		}
	}
	return false
}

// TrimGrid drops trailing empty cells from each row and trailing empty rows,
// matching how spreadsheet APIs report sparse ranges.
func TrimGrid(grid [][]string) [][]string {
	out := make([][]string, 0, len(grid))
	for _, row := range grid {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		out = append(out, row[:end])
	}
	end := len(out)
	for end > 0 && len(out[end-1]) == 0 {
		end--
	}
	return out[:end]
}
