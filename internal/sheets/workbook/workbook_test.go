package workbook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/klytics/sheetsense/internal/sheets"
)

func newTestWorkbook(t *testing.T, tabs ...Tab) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := Create(path, tabs...); err != nil {
		t.Fatalf("Create: %v", err)
	}
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func mustRange(t *testing.T, s string) *sheets.Range {
	t.Helper()
	r, err := sheets.ParseRange(s)
	if err != nil {
		t.Fatal(err)
	}
	return &r
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	if !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListSheets(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Data"}, Tab{Name: "My Tab"}, Tab{Name: "Summary"})
	got, err := c.ListSheets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Data", "My Tab", "Summary"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListSheets = %v, want %v", got, want)
	}
}

func TestWriteThenRead(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Sheet1"})
	ctx := context.Background()

	n, err := c.WriteCell(ctx, sheets.Ref{Sheet: "Sheet1", Range: mustRange(t, "A1")}, "Hello World")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("updated cells = %d", n)
	}

	got, err := c.ReadRange(ctx, sheets.Ref{Sheet: "Sheet1", Range: mustRange(t, "A1:A1")})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, [][]string{{"Hello World"}}) {
		t.Errorf("ReadRange = %#v", got)
	}
}

func TestReadRangeTrimsAndOffsets(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Data", Rows: [][]string{
		{"Name", "Role", "Team"},
		{"Ann", "Manager", "Ops"},
		{"Bo", "Engineer", ""},
	}})
	ctx := context.Background()

	got, err := c.ReadRange(ctx, sheets.Ref{Sheet: "Data", Range: mustRange(t, "B2:D5")})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"Manager", "Ops"}, {"Engineer"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRange = %#v, want %#v", got, want)
	}

	all, err := c.ReadRange(ctx, sheets.Ref{Sheet: "Data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0][0] != "Name" {
		t.Errorf("whole sheet = %#v", all)
	}
}

func TestReadRangeLargestSheetRange(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Data", Rows: [][]string{{"a"}, {"", "b"}}})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := c.ReadRange(ctx, sheets.Ref{Sheet: "Data", Range: mustRange(t, "A1:XFD1048576")})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"a"}, {"", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRange = %#v, want %#v", got, want)
	}

	got, err = c.ReadRange(ctx, sheets.Ref{Sheet: "Data", Range: mustRange(t, "C500:D900")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("range past the used area = %#v, want empty", got)
	}
}

func TestMissingSheet(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Sheet1"})
	ctx := context.Background()
	ref := sheets.Ref{Sheet: "Nope", Range: mustRange(t, "A1")}

	if _, err := c.ReadRange(ctx, ref); !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("ReadRange err = %v", err)
	}
	if _, err := c.WriteCell(ctx, ref, "x"); !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("WriteCell err = %v", err)
	}
	if _, err := c.AppendRow(ctx, "Nope", []string{"x"}); !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("AppendRow err = %v", err)
	}
	if _, err := c.FindReplace(ctx, ref, "a", "b"); !errors.Is(err, sheets.ErrNotFound) {
		t.Errorf("FindReplace err = %v", err)
	}
}

func TestAppendRowAddsExactlyOneRow(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "People", Rows: [][]string{
		{"First", "Last", "Title"},
		{"Ann", "Lee", "Manager"},
	}})
	ctx := context.Background()

	before, err := c.ReadRange(ctx, sheets.Ref{Sheet: "People"})
	if err != nil {
		t.Fatal(err)
	}

	values := []string{"John", "Doe", "Engineer"}
	res, err := c.AppendRow(ctx, "People", values)
	if err != nil {
		t.Fatal(err)
	}
	if res.Row != 3 {
		t.Errorf("row = %d, want 3", res.Row)
	}
	if res.UpdatedRange != "People!A3:C3" {
		t.Errorf("updated range = %s", res.UpdatedRange)
	}
	if res.UpdatedCells != 3 {
		t.Errorf("updated cells = %d", res.UpdatedCells)
	}

	after, err := c.ReadRange(ctx, sheets.Ref{Sheet: "People"})
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("rows %d -> %d, want +1", len(before), len(after))
	}
	if !reflect.DeepEqual(after[len(after)-1], values) {
		t.Errorf("last row = %v, want %v", after[len(after)-1], values)
	}
}

func TestAppendRowToEmptySheet(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Empty"})
	res, err := c.AppendRow(context.Background(), "Empty", []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Row != 1 {
		t.Errorf("row = %d, want 1", res.Row)
	}
}

func TestFindReplaceCountsOccurrences(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Staff", Rows: [][]string{
		{"Name", "Title"},
		{"Ann", "Manager"},
		{"Bo", "Engineer"},
		{"Cy", "Senior Manager"},
	}})
	ctx := context.Background()
	ref := sheets.Ref{Sheet: "Staff"}

	n, err := c.FindReplace(ctx, ref, "Manager", "Director")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("occurrences = %d, want 2", n)
	}

	grid, err := c.ReadRange(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range grid {
		for _, v := range row {
			if strings.Contains(v, "Manager") {
				t.Errorf("Manager still present: %v", grid)
			}
		}
	}
	if grid[3][1] != "Senior Director" {
		t.Errorf("substring replace = %q", grid[3][1])
	}

	again, err := c.FindReplace(ctx, ref, "Manager", "Director")
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 {
		t.Errorf("second pass = %d, want 0", again)
	}
}

func TestFindReplaceSeveralInOneCell(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "Staff", Rows: [][]string{{"Manager / Manager"}}})
	ctx := context.Background()

	n, err := c.FindReplace(ctx, sheets.Ref{Sheet: "Staff"}, "Manager", "Director")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("occurrences = %d, want 2", n)
	}
	grid, err := c.ReadRange(ctx, sheets.Ref{Sheet: "Staff"})
	if err != nil {
		t.Fatal(err)
	}
	if grid[0][0] != "Director / Director" {
		t.Errorf("cell = %q", grid[0][0])
	}
}

func TestFindReplaceRespectsRange(t *testing.T) {
	c := newTestWorkbook(t, Tab{Name: "S", Rows: [][]string{
		{"x", "x"},
		{"x", "x"},
	}})
	ctx := context.Background()

	n, err := c.FindReplace(ctx, sheets.Ref{Sheet: "S", Range: mustRange(t, "A1:A2")}, "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("occurrences = %d, want 2", n)
	}
	grid, _ := c.ReadRange(ctx, sheets.Ref{Sheet: "S"})
	want := [][]string{{"y", "x"}, {"y", "x"}}
	if !reflect.DeepEqual(grid, want) {
		t.Errorf("grid = %v, want %v", grid, want)
	}
}

func TestDiscover(t *testing.T) {
	c := newTestWorkbook(t)
	dir := filepath.Dir(c.Path())
	if err := Create(filepath.Join(dir, "other.xlsx")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := c.Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range found {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"book", "other"}) {
		t.Errorf("discovered = %v", names)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestWorkbook(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListSheets(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
