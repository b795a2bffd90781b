package sheets

// Ref addresses a tab, and optionally a range on it, within one spreadsheet.
// It is resolved per request and never cached.
type Ref struct {
	SpreadsheetID string
	Sheet         string
	Range         *Range
}

// A1 renders the reference in A1 notation: 'My Tab'!A1:B2, or just the quoted tab.
func (r Ref) A1() string {
	if r.Range == nil {
		return QuoteSheet(r.Sheet)
	}
	return QuoteSheet(r.Sheet) + "!" + r.Range.String()
}

// RangeString returns the bare range, or "" when the whole tab is addressed.
func (r Ref) RangeString() string {
	if r.Range == nil {
		return ""
	}
	return r.Range.String()
}
