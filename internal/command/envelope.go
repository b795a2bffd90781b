package command

import "errors"

// Envelope is the uniform response to every command.
// Exactly one of Result and Error is set.
type Envelope struct {
	Success   bool   `json:"success"`
	Operation string `json:"operation,omitempty"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      Kind   `json:"kind,omitempty"`
}

// Succeed wraps a result payload.
func Succeed(op Operation, result any) Envelope {
	return Envelope{Success: true, Operation: string(op), Result: result}
}

// Fail turns any error into a failed envelope.
func Fail(err error) Envelope {
	env := Envelope{Success: false, Error: err.Error(), Kind: KindOf(err)}
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		env.Operation = cmdErr.Op
	}
	return env
}

// WriteResult is the payload of write_cell.
type WriteResult struct {
	Sheet        string `json:"sheet"`
	Cell         string `json:"cell"`
	Value        string `json:"value"`
	UpdatedCells int    `json:"updated_cells"`
}

// ReadResult is the payload of read_range.
type ReadResult struct {
	Sheet  string     `json:"sheet"`
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
	Rows   int        `json:"rows"`
}

// AppendResult is the payload of append_row.
type AppendResult struct {
	Sheet        string   `json:"sheet"`
	Values       []string `json:"values"`
	Row          int      `json:"row"`
	UpdatedRange string   `json:"updated_range"`
}

// FindReplaceResult is the payload of find_replace.
type FindReplaceResult struct {
	Sheet       string `json:"sheet"`
	Range       string `json:"range,omitempty"`
	Find        string `json:"find"`
	Replace     string `json:"replace"`
	Occurrences int    `json:"occurrences"`
}

// ListResult is the payload of list_sheets.
type ListResult struct {
	Sheets []string `json:"sheets"`
}
