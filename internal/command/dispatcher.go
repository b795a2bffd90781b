package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/klytics/sheetsense/internal/logging"
	"github.com/klytics/sheetsense/internal/sheets"
)

const logPrefix = "command:dispatcher"

// Dispatcher executes validated intents against a spreadsheet client.
type Dispatcher struct {
	client       sheets.Client
	defaultSheet string
	log          *slog.Logger
}

// NewDispatcher creates a Dispatcher. defaultSheet is used when an intent names no
// tab; when it is empty the first tab is used.
func NewDispatcher(client sheets.Client, defaultSheet string, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Dispatcher{client: client, defaultSheet: defaultSheet, log: log}
}

// Dispatch performs the one client call the intent maps to. Failures are
// returned as envelopes, never as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent) Envelope {
	d.log.Debug(fmt.Sprintf("%s - operation=%s", logPrefix, in.Operation()), "params", in.Params())

	switch in.Operation() {
	case WriteCell:
		return d.handleWriteCell(ctx, in)
	case ReadRange:
		return d.handleReadRange(ctx, in)
	case AppendRow:
		return d.handleAppendRow(ctx, in)
	case FindReplace:
		return d.handleFindReplace(ctx, in)
	case ListSheets:
		return d.handleListSheets(ctx)
	default:
		return Fail(Unsupported(string(in.Operation())))
	}
}

func (d *Dispatcher) handleWriteCell(ctx context.Context, in Intent) Envelope {
	ref, err := d.resolve(ctx, in)
	if err != nil {
		return Fail(err)
	}
	n, err := d.client.WriteCell(ctx, ref, in.Value())
	if err != nil {
		return Fail(fromClient(WriteCell, err))
	}
	return Succeed(WriteCell, WriteResult{
		Sheet:        ref.Sheet,
		Cell:         ref.Range.Start.String(),
		Value:        in.Value(),
		UpdatedCells: n,
	})
}

func (d *Dispatcher) handleReadRange(ctx context.Context, in Intent) Envelope {
	ref, err := d.resolve(ctx, in)
	if err != nil {
		return Fail(err)
	}
	values, err := d.client.ReadRange(ctx, ref)
	if err != nil {
		return Fail(fromClient(ReadRange, err))
	}
	if values == nil {
		values = [][]string{}
	}
	return Succeed(ReadRange, ReadResult{
		Sheet:  ref.Sheet,
		Range:  ref.RangeString(),
		Values: values,
		Rows:   len(values),
	})
}

func (d *Dispatcher) handleAppendRow(ctx context.Context, in Intent) Envelope {
	ref, err := d.resolve(ctx, in)
	if err != nil {
		return Fail(err)
	}
	values := in.Values()
	res, err := d.client.AppendRow(ctx, ref.Sheet, values)
	if err != nil {
		return Fail(fromClient(AppendRow, err))
	}
	return Succeed(AppendRow, AppendResult{
		Sheet:        ref.Sheet,
		Values:       values,
		Row:          res.Row,
		UpdatedRange: res.UpdatedRange,
	})
}

func (d *Dispatcher) handleFindReplace(ctx context.Context, in Intent) Envelope {
	if _, ok := in.Range(); !ok && !in.WholeSheet() {
		return Fail(Validationf(FindReplace, `whole-tab replacement requires scope "sheet"`))
	}
	ref, err := d.resolve(ctx, in)
	if err != nil {
		return Fail(err)
	}
	n, err := d.client.FindReplace(ctx, ref, in.Find(), in.Replace())
	if err != nil {
		return Fail(fromClient(FindReplace, err))
	}
	return Succeed(FindReplace, FindReplaceResult{
		Sheet:       ref.Sheet,
		Range:       ref.RangeString(),
		Find:        in.Find(),
		Replace:     in.Replace(),
		Occurrences: n,
	})
}

func (d *Dispatcher) handleListSheets(ctx context.Context) Envelope {
	tabs, err := d.client.ListSheets(ctx)
	if err != nil {
		return Fail(fromClient(ListSheets, err))
	}
	if tabs == nil {
		tabs = []string{}
	}
	return Succeed(ListSheets, ListResult{Sheets: tabs})
}

// resolve builds the sheet reference for this request from a fresh tab listing.
func (d *Dispatcher) resolve(ctx context.Context, in Intent) (sheets.Ref, error) {
	op := in.Operation()
	tabs, err := d.client.ListSheets(ctx)
	if err != nil {
		return sheets.Ref{}, fromClient(op, err)
	}

	name := in.Sheet()
	if name == "" {
		name = d.defaultSheet
	}
	if name == "" {
		if len(tabs) == 0 {
			return sheets.Ref{}, &Error{Kind: KindNotFound, Op: string(op), Msg: "the spreadsheet has no tabs"}
		}
		name = tabs[0]
	}
	if !sheets.Contains(tabs, name) {
		return sheets.Ref{}, &Error{
			Kind: KindNotFound,
			Op:   string(op),
			Msg:  fmt.Sprintf("sheet %q not found (available sheets: %s)", name, strings.Join(tabs, ", ")),
		}
	}

	ref := sheets.Ref{SpreadsheetID: d.client.SpreadsheetID(), Sheet: name}
	if r, ok := in.Range(); ok {
		ref.Range = &r
	}
	return ref, nil
}
