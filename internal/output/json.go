package output

import (
	"github.com/klytics/sheetsense/internal/command"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // the command could not be understood or addressed a missing cell/tab
	ExitSystemError = 2 // model, spreadsheet or relay failure
)

// ExitCode maps an envelope to a process exit code.
func ExitCode(env command.Envelope) int {
	if env.Success {
		return ExitOK
	}
	switch env.Kind {
	case command.KindInterpretation, command.KindUnsupported, command.KindValidation, command.KindNotFound:
		return ExitUserError
	default:
		return ExitSystemError
	}
}
