// Package events publishes a record of every executed command.
package events

// SubjectCommandExecuted is the default subject for command.executed events.
const SubjectCommandExecuted = "sheetsense.command.executed"

// CommandExecutedEvent is emitted once per interpreted-and-dispatched command,
// whether or not it succeeded.
type CommandExecutedEvent struct {
	Command       string         `json:"command"`
	Operation     string         `json:"operation,omitempty"`
	Params        map[string]any `json:"params,omitempty"`
	Success       bool           `json:"success"`
	Kind          string         `json:"kind,omitempty"`
	Error         string         `json:"error,omitempty"`
	SpreadsheetID string         `json:"spreadsheetId,omitempty"`
	DurationMs    int64          `json:"durationMs"`
	Timestamp     string         `json:"timestamp"`
}
