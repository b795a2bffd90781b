// Package command holds the closed set of spreadsheet operations, the validated
// intent a model response is turned into, the uniform response envelope and the
// dispatcher that maps an intent onto exactly one spreadsheet client call.
package command

import (
	"strings"
)

// Operation is one of the supported spreadsheet operations.
type Operation string

// Supported operations.
const (
	WriteCell   Operation = "write_cell"
	ReadRange   Operation = "read_range"
	AppendRow   Operation = "append_row"
	FindReplace Operation = "find_replace"
	ListSheets  Operation = "list_sheets"
)

// Param describes one operation parameter.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Spec describes an operation for prompts and help text.
type Spec struct {
	Operation   Operation `json:"operation"`
	Description string    `json:"description"`
	Params      []Param   `json:"params"`
	Mutates     bool      `json:"mutates"`
	Example     string    `json:"example"`
}

var sheetParam = Param{Name: "sheet", Type: "string", Description: "tab name; defaults to the active tab"}

var catalog = []Spec{
	{
		Operation:   WriteCell,
		Description: "Write a single value into one cell.",
		Params: []Param{
			{Name: "cell", Type: "string", Required: true, Description: "A1 cell address, e.g. B3"},
			{Name: "value", Type: "string|number|boolean", Required: true, Description: "value to store"},
			sheetParam,
		},
		Mutates: true,
		Example: "Write 'Hello World' in A1",
	},
	{
		Operation:   ReadRange,
		Description: "Read the values in a rectangular range.",
		Params: []Param{
			{Name: "range", Type: "string", Required: true, Description: "A1 range, e.g. A1:C10 (a single cell is allowed)"},
			sheetParam,
		},
		Example: "Read A1:C5",
	},
	{
		Operation:   AppendRow,
		Description: "Append one row after the last row with data.",
		Params: []Param{
			{Name: "values", Type: "array", Required: true, Description: "cell values in column order"},
			sheetParam,
		},
		Mutates: true,
		Example: "Add a row with John, Doe, Engineer",
	},
	{
		Operation:   FindReplace,
		Description: "Replace text in every matching cell of a range, or of the whole tab.",
		Params: []Param{
			{Name: "find", Type: "string", Required: true, Description: "text to search for"},
			{Name: "replace", Type: "string", Required: true, Description: "replacement text (may be empty)"},
			{Name: "range", Type: "string", Description: "A1 range to limit the replacement"},
			{Name: "scope", Type: "string", Description: `must be "sheet" when no range is given, confirming a whole-tab replacement`},
			sheetParam,
		},
		Mutates: true,
		Example: "Replace Manager with Director in B2:B20",
	},
	{
		Operation:   ListSheets,
		Description: "List the tabs of the spreadsheet.",
		Example:     "Which sheets are there?",
	},
}

// Catalog returns the specs of all supported operations, in a fixed order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Operations returns the supported operation names in catalog order.
func Operations() []Operation {
	out := make([]Operation, len(catalog))
	for i, s := range catalog {
		out[i] = s.Operation
	}
	return out
}

// Names returns the supported operation names as strings.
func Names() []string {
	out := make([]string, len(catalog))
	for i, s := range catalog {
		out[i] = string(s.Operation)
	}
	return out
}

func joinOperations() string {
	return strings.Join(Names(), ", ")
}

// ParseOperation accepts exactly the supported operation names.
func ParseOperation(s string) (Operation, error) {
	name := strings.TrimSpace(s)
	for _, spec := range catalog {
		if string(spec.Operation) == name {
			return spec.Operation, nil
		}
	}
	return "", Unsupported(name)
}

// Mutates reports whether the operation changes the spreadsheet.
func (o Operation) Mutates() bool {
	for _, s := range catalog {
		if s.Operation == o {
			return s.Mutates
		}
	}
	return false
}

func (o Operation) String() string {
	return string(o)
}
