package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/klytics/sheetsense/internal/sheets"
)

// Kind names an error class in the response envelope.
type Kind string

// Error kinds, one per failure class a command can end in.
const (
	KindInterpretation Kind = "interpretation_error"
	KindUnsupported    Kind = "unsupported_operation"
	KindValidation     Kind = "validation_error"
	KindNotFound       Kind = "not_found"
	KindUpstream       Kind = "upstream_error"
	KindConnectivity   Kind = "connectivity_error"
)

// Error is the single error type produced while interpreting or executing a command.
type Error struct {
	Kind Kind
	Op   string // operation name, when known
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Interpretationf reports model output that could not be turned into an intent.
func Interpretationf(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInterpretation, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Unsupported reports an operation outside the allow-list.
func Unsupported(op string) *Error {
	return &Error{
		Kind: KindUnsupported,
		Op:   op,
		Msg:  fmt.Sprintf("unsupported operation %q (supported: %s)", op, joinOperations()),
	}
}

// Validationf reports a missing or malformed parameter.
func Validationf(op Operation, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: string(op), Msg: fmt.Sprintf(format, args...)}
}

// Connectivity reports that the relay could not be reached.
func Connectivity(err error) *Error {
	return &Error{Kind: KindConnectivity, Msg: "could not reach the SheetSense relay", Err: err}
}

// fromClient classifies a spreadsheet client failure.
func fromClient(op Operation, err error) *Error {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	if errors.Is(err, sheets.ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: string(op), Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstream, Op: string(op), Msg: "request canceled", Err: err}
	}
	return &Error{Kind: KindUpstream, Op: string(op), Err: err}
}

// KindOf returns the kind of err, treating anything untyped as an upstream failure.
func KindOf(err error) Kind {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	if errors.Is(err, sheets.ErrNotFound) {
		return KindNotFound
	}
	return KindUpstream
}
