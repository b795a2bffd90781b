// Package google implements the spreadsheet client over the Google Sheets v4 API,
// authenticating with a service account key. Drive v3 is used only to discover
// spreadsheets shared with that account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/klytics/sheetsense/internal/logging"
	"github.com/klytics/sheetsense/internal/sheets"
)

const logPrefix = "sheets:google"

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Options configures a Client.
type Options struct {
	CredentialsFile string
	SpreadsheetID   string
	// Endpoint overrides the API root for both Sheets and Drive; used against emulators and in tests.
	Endpoint string
	// HTTPClient replaces the authenticated transport entirely.
	HTTPClient *http.Client
	Logger     *slog.Logger
	// DiscoverOnly skips picking a spreadsheet when none is configured.
	DiscoverOnly bool
}

// Client talks to one spreadsheet.
type Client struct {
	svc   *gsheets.Service
	drive *drive.Service
	id    string
	log   *slog.Logger
}

var (
	_ sheets.Client     = (*Client)(nil)
	_ sheets.Discoverer = (*Client)(nil)
)

// New builds the Sheets and Drive services. When no spreadsheet id is configured the
// first spreadsheet shared with the service account is used.
func New(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	var clientOpts []option.ClientOption
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	} else {
		if opts.CredentialsFile == "" {
			return nil, fmt.Errorf("no service account credentials configured (set GOOGLE_APPLICATION_CREDENTIALS)")
		}
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(opts.CredentialsFile),
			option.WithScopes(gsheets.SpreadsheetsScope, drive.DriveReadonlyScope),
		)
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not create sheets service: %w", err)
	}
	drv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not create drive service: %w", err)
	}

	c := &Client{svc: svc, drive: drv, id: opts.SpreadsheetID, log: log}
	if c.id == "" && !opts.DiscoverOnly {
		found, err := c.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("no spreadsheet id configured and discovery failed: %w", err)
		}
		if len(found) == 0 {
			return nil, sheets.NotFound("no spreadsheet id configured and no spreadsheet is shared with the service account")
		}
		c.id = found[0].ID
		log.Info(fmt.Sprintf("%s - Using first shared spreadsheet", logPrefix), "name", found[0].Name, "id", c.id)
	}
	return c, nil
}

// SpreadsheetID returns the id of the spreadsheet this client edits.
func (c *Client) SpreadsheetID() string {
	return c.id
}

type tab struct {
	id    int64
	title string
}

func (c *Client) tabs(ctx context.Context) ([]tab, error) {
	resp, err := c.svc.Spreadsheets.Get(c.id).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).Do()
	if err != nil {
		return nil, upstream("get spreadsheet", err)
	}
	out := make([]tab, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		out = append(out, tab{id: s.Properties.SheetId, title: s.Properties.Title})
	}
	return out, nil
}

// ListSheets returns tab titles in spreadsheet order.
func (c *Client) ListSheets(ctx context.Context) ([]string, error) {
	tabs, err := c.tabs(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tabs))
	for i, t := range tabs {
		names[i] = t.title
	}
	return names, nil
}

// ReadRange returns formatted values for ref.
func (c *Client) ReadRange(ctx context.Context, ref sheets.Ref) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.id, ref.A1()).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, upstreamRef("read", ref, err)
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		line := make([]string, len(row))
		for j, v := range row {
			line[j] = fmt.Sprint(v)
		}
		grid[i] = line
	}
	return sheets.TrimGrid(grid), nil
}

// WriteCell stores value verbatim (RAW input) into the top-left cell of ref.
func (c *Client) WriteCell(ctx context.Context, ref sheets.Ref, value string) (int, error) {
	if ref.Range == nil {
		return 0, fmt.Errorf("write requires a cell address")
	}
	cell := sheets.SingleCell(ref.Range.Start)
	target := sheets.Ref{Sheet: ref.Sheet, Range: &cell}
	resp, err := c.svc.Spreadsheets.Values.Update(c.id, target.A1(), &gsheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, upstreamRef("write", target, err)
	}
	return int(resp.UpdatedCells), nil
}

// AppendRow inserts values as a new row after the last row of the tab's data table.
func (c *Client) AppendRow(ctx context.Context, sheet string, values []string) (sheets.AppendResult, error) {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	anchor := sheets.QuoteSheet(sheet) + "!A1"
	resp, err := c.svc.Spreadsheets.Values.Append(c.id, anchor, &gsheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return sheets.AppendResult{}, upstreamRef("append to", sheets.Ref{Sheet: sheet}, err)
	}

	var res sheets.AppendResult
	if resp.Updates != nil {
		res.UpdatedRange = resp.Updates.UpdatedRange
		res.UpdatedCells = int(resp.Updates.UpdatedCells)
		res.Row = rowOf(resp.Updates.UpdatedRange)
	}
	return res, nil
}

// FindReplace replaces find with replace in ref, or across the whole tab when ref
// has no range. It returns the number of occurrences replaced.
func (c *Client) FindReplace(ctx context.Context, ref sheets.Ref, find, replace string) (int, error) {
	tabs, err := c.tabs(ctx)
	if err != nil {
		return 0, err
	}
	var sheetID int64 = -1
	for _, t := range tabs {
		if t.title == ref.Sheet {
			sheetID = t.id
			break
		}
	}
	if sheetID < 0 {
		return 0, sheets.NotFound("sheet %q", ref.Sheet)
	}

	req := &gsheets.FindReplaceRequest{
		Find:        find,
		Replacement: replace,
		MatchCase:   true,
	}
	if ref.Range == nil {
		req.SheetId = sheetID
		req.ForceSendFields = []string{"SheetId"}
	} else {
		req.Range = gridRange(sheetID, *ref.Range)
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.id, &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{FindReplace: req}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, upstreamRef("find/replace on", ref, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].FindReplace == nil {
		return 0, nil
	}
	fr := resp.Replies[0].FindReplace
	return int(fr.OccurrencesChanged), nil
}

// Discover lists spreadsheets shared with the service account.
func (c *Client) Discover(ctx context.Context) ([]sheets.Spreadsheet, error) {
	resp, err := c.drive.Files.List().
		Q(fmt.Sprintf("mimeType='%s' and trashed=false", spreadsheetMimeType)).
		Fields("files(id,name,webViewLink,createdTime)").
		PageSize(100).
		Context(ctx).Do()
	if err != nil {
		return nil, upstream("list spreadsheets", err)
	}
	out := make([]sheets.Spreadsheet, 0, len(resp.Files))
	for _, f := range resp.Files {
		s := sheets.Spreadsheet{ID: f.Id, Name: f.Name, URL: f.WebViewLink}
		if ts, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
			s.CreatedTime = ts
		}
		out = append(out, s)
	}
	return out, nil
}

// gridRange converts a 1-based inclusive range to the API's 0-based half-open GridRange.
func gridRange(sheetID int64, r sheets.Range) *gsheets.GridRange {
	return &gsheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(r.Start.Row - 1),
		EndRowIndex:      int64(r.End.Row),
		StartColumnIndex: int64(r.Start.Col - 1),
		EndColumnIndex:   int64(r.End.Col),
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

// rowOf extracts the first row number from an A1 range such as "'My Tab'!A5:C5".
func rowOf(a1 string) int {
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		a1 = a1[i+1:]
	}
	if i := strings.Index(a1, ":"); i >= 0 {
		a1 = a1[:i]
	}
	c, err := sheets.ParseCell(a1)
	if err != nil {
		return 0
	}
	return c.Row
}

// upstream maps API failures: 404 and unparseable ranges become sheets.ErrNotFound,
// everything else is returned with the upstream message intact.
func upstream(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound {
			return fmt.Errorf("%s: %s: %w", op, apiErr.Message, sheets.ErrNotFound)
		}
		if badRange(apiErr) {
			return fmt.Errorf("%s: %s: %w", op, apiErr.Message, sheets.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// upstreamRef is upstream for calls addressing ref; a range the API cannot parse is
// reported against the tab and range that were asked for.
func upstreamRef(verb string, ref sheets.Ref, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && badRange(apiErr) {
		where := ref.RangeString()
		if where == "" {
			where = "whole tab"
		}
		return sheets.NotFound("%s sheet %q range %s (%s)", verb, ref.Sheet, where, apiErr.Message)
	}
	return upstream(verb+" "+ref.A1(), err)
}

func badRange(apiErr *googleapi.Error) bool {
	return apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range")
}
