package sheets

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Worksheet limits shared by Google Sheets grids and the xlsx format.
const (
	MaxRows    = 1048576
	MaxColumns = 16384 // XFD
)

var (
	cellPattern     = regexp.MustCompile(`^[A-Za-z]{1,3}[1-9][0-9]*$`)
	plainTabPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Cell is a 1-based column/row coordinate.
type Cell struct {
	Col int
	Row int
}

// ParseCell parses an A1 cell address such as "b12". Column letters are case-insensitive.
func ParseCell(s string) (Cell, error) {
	s = strings.TrimSpace(s)
	if !cellPattern.MatchString(s) {
		return Cell{}, fmt.Errorf("invalid cell address %q: expected column letters followed by a row number, e.g. A1", s)
	}
	i := strings.IndexAny(s, "0123456789")
	row, err := strconv.Atoi(s[i:])
	if err != nil || row > MaxRows {
		return Cell{}, &boundsError{addr: s, what: fmt.Sprintf("row exceeds %d", MaxRows)}
	}
	col := ColumnNumber(s[:i])
	if col > MaxColumns {
		return Cell{}, &boundsError{addr: s, what: "column is past " + ColumnName(MaxColumns)}
	}
	return Cell{Col: col, Row: row}, nil
}

type boundsError struct {
	addr string
	what string
}

func (e *boundsError) Error() string {
	return fmt.Sprintf("cell %q is outside the sheet: %s", strings.ToUpper(e.addr), e.what)
}

// rangeError keeps a bounds failure's message and replaces a syntax failure with
// the expected range form.
func rangeError(s string, err error) error {
	var be *boundsError
	if errors.As(err, &be) {
		return fmt.Errorf("invalid range %q: %w", s, err)
	}
	return fmt.Errorf("invalid range %q: expected <cell>:<cell>, e.g. A1:C3", s)
}

// String renders the cell in upper-case A1 form.
func (c Cell) String() string {
	return ColumnName(c.Col) + strconv.Itoa(c.Row)
}

// ColumnNumber converts column letters to a 1-based index (A=1, Z=26, AA=27).
func ColumnNumber(letters string) int {
	n := 0
	for _, r := range strings.ToUpper(letters) {
		n = n*26 + int(r-'A'+1)
	}
	return n
}

// ColumnName converts a 1-based column index to letters.
func ColumnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Range is a rectangular block of cells with Start at the top-left.
type Range struct {
	Start Cell
	End   Cell
}

// ParseRange parses "A1:C3". A single cell "B2" is accepted as "B2:B2".
// Corners given in any order are normalized so Start is top-left.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		c, err := ParseCell(parts[0])
		if err != nil {
			return Range{}, rangeError(s, err)
		}
		return Range{Start: c, End: c}, nil
	case 2:
		a, err := ParseCell(parts[0])
		if err != nil {
			return Range{}, rangeError(s, err)
		}
		b, err := ParseCell(parts[1])
		if err != nil {
			return Range{}, rangeError(s, err)
		}
		return Range{
			Start: Cell{Col: min(a.Col, b.Col), Row: min(a.Row, b.Row)},
			End:   Cell{Col: max(a.Col, b.Col), Row: max(a.Row, b.Row)},
		}, nil
	default:
		return Range{}, fmt.Errorf("invalid range %q: expected <cell>:<cell>, e.g. A1:C3", s)
	}
}

// SingleCell returns the one-cell range covering c.
func SingleCell(c Cell) Range {
	return Range{Start: c, End: c}
}

// String renders the range as "A1:C3".
func (r Range) String() string {
	return r.Start.String() + ":" + r.End.String()
}

// Rows returns the number of rows the range spans.
func (r Range) Rows() int { return r.End.Row - r.Start.Row + 1 }

// Cols returns the number of columns the range spans.
func (r Range) Cols() int { return r.End.Col - r.Start.Col + 1 }

// Contains reports whether c lies inside the range.
func (r Range) Contains(c Cell) bool {
	return c.Col >= r.Start.Col && c.Col <= r.End.Col && c.Row >= r.Start.Row && c.Row <= r.End.Row
}

// QuoteSheet renders a tab name for use in A1 notation. Names made only of letters,
// digits and underscores that cannot be mistaken for a cell are left bare; anything
// else is wrapped in single quotes with embedded quotes doubled.
func QuoteSheet(name string) string {
	if plainTabPattern.MatchString(name) && !cellPattern.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
