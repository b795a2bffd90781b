package sheets

import (
	"context"
	"fmt"
)

// Unavailable returns a Client whose every call fails with err. It stands in for a
// backend that could not be constructed, such as one with unusable credentials,
// so the relay can still start and report itself unhealthy.
func Unavailable(err error) Client {
	return unavailable{err: fmt.Errorf("spreadsheet client unavailable: %w", err)}
}

type unavailable struct{ err error }

func (u unavailable) SpreadsheetID() string { return "" }

func (u unavailable) ListSheets(context.Context) ([]string, error) { return nil, u.err }

func (u unavailable) ReadRange(context.Context, Ref) ([][]string, error) { return nil, u.err }

func (u unavailable) WriteCell(context.Context, Ref, string) (int, error) { return 0, u.err }

func (u unavailable) AppendRow(context.Context, string, []string) (AppendResult, error) {
	return AppendResult{}, u.err
}

func (u unavailable) FindReplace(context.Context, Ref, string, string) (int, error) { return 0, u.err }
