// Package agent runs a chat command end to end: interpret the text, dispatch the
// intent, report progress stages and publish the outcome.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/events"
	"github.com/klytics/sheetsense/internal/interpret"
	"github.com/klytics/sheetsense/internal/logging"
	"github.com/klytics/sheetsense/internal/sheets"
)

const logPrefix = "agent:agent"

// Stage is a progress marker emitted while a command runs.
type Stage string

// Stages in emission order. StageExecuting is skipped when interpretation fails.
const (
	StageInterpreting Stage = "interpreting"
	StageExecuting    Stage = "executing"
	StageDone         Stage = "done"
)

// Health reports whether the spreadsheet backend is reachable.
type Health struct {
	Status          string `json:"status"`
	AgentReady      bool   `json:"agent_ready"`
	AvailableSheets int    `json:"available_sheets"`
}

// Info describes what the agent can do.
type Info struct {
	SupportedOperations []string       `json:"supported_operations"`
	Version             string         `json:"version"`
	Operations          []command.Spec `json:"operations,omitempty"`
}

// Options configures an Agent. Client and Interpreter are required.
type Options struct {
	Client       sheets.Client
	Interpreter  interpret.Interpreter
	DefaultSheet string
	Publisher    events.Publisher
	Version      string
	Logger       *slog.Logger
}

// Agent ties the interpreter to the dispatcher. It holds no per-request state.
type Agent struct {
	client     sheets.Client
	interp     interpret.Interpreter
	dispatcher *command.Dispatcher
	publisher  events.Publisher
	version    string
	log        *slog.Logger
	now        func() time.Time
}

// New creates an Agent.
func New(opts Options) *Agent {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Agent{
		client:     opts.Client,
		interp:     opts.Interpreter,
		dispatcher: command.NewDispatcher(opts.Client, opts.DefaultSheet, log),
		publisher:  pub,
		version:    version,
		log:        log,
		now:        time.Now,
	}
}

// Execute interprets text and dispatches the resulting intent. onStage, when
// non-nil, is called synchronously for each stage. The dispatcher is never reached
// when interpretation fails.
func (a *Agent) Execute(ctx context.Context, text string, onStage func(Stage)) command.Envelope {
	emit := func(s Stage) {
		if onStage != nil {
			onStage(s)
		}
	}
	start := a.now()
	emit(StageInterpreting)

	tabs, err := a.client.ListSheets(ctx)
	if err != nil {
		a.log.Warn(fmt.Sprintf("%s - could not list sheets for prompt", logPrefix), "error", err)
		tabs = nil
	}

	intent, err := a.interp.Interpret(ctx, text, tabs)
	if err != nil {
		env := command.Fail(err)
		emit(StageDone)
		a.publish(ctx, text, nil, env, start)
		return env
	}

	emit(StageExecuting)
	env := a.dispatcher.Dispatch(ctx, intent)
	emit(StageDone)
	a.publish(ctx, text, &intent, env, start)
	return env
}

func (a *Agent) publish(ctx context.Context, text string, intent *command.Intent, env command.Envelope, start time.Time) {
	elapsed := a.now().Sub(start)
	event := &events.CommandExecutedEvent{
		Command:       text,
		Operation:     env.Operation,
		Success:       env.Success,
		Kind:          string(env.Kind),
		Error:         env.Error,
		SpreadsheetID: a.client.SpreadsheetID(),
		DurationMs:    elapsed.Milliseconds(),
		Timestamp:     start.UTC().Format(time.RFC3339),
	}
	if intent != nil {
		event.Operation = string(intent.Operation())
		event.Params = intent.Params()
	}

	a.log.Info(fmt.Sprintf("%s - command executed", logPrefix),
		"operation", event.Operation,
		"success", env.Success,
		"kind", env.Kind,
		"duration", elapsed,
	)

	if err := a.publisher.PublishExecuted(ctx, event); err != nil {
		a.log.Warn(fmt.Sprintf("%s - failed to publish command.executed", logPrefix), "error", err)
	}
}

// Health lists sheets to check the backend. It never fails; an unreachable or
// unauthenticated backend reports status "error".
func (a *Agent) Health(ctx context.Context) Health {
	tabs, err := a.client.ListSheets(ctx)
	if err != nil {
		a.log.Warn(fmt.Sprintf("%s - health check failed", logPrefix), "error", err)
		return Health{Status: "error", AgentReady: false, AvailableSheets: 0}
	}
	return Health{Status: "ok", AgentReady: true, AvailableSheets: len(tabs)}
}

// Sheets returns the tab names of the active spreadsheet.
func (a *Agent) Sheets(ctx context.Context) ([]string, error) {
	tabs, err := a.client.ListSheets(ctx)
	if err != nil {
		return nil, err
	}
	if tabs == nil {
		tabs = []string{}
	}
	return tabs, nil
}

// Info returns the supported operations and the build version.
func (a *Agent) Info() Info {
	return Info{
		SupportedOperations: command.Names(),
		Version:             a.version,
		Operations:          command.Catalog(),
	}
}
