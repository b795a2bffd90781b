package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
)

// Executor runs one chat command.
type Executor interface {
	Execute(ctx context.Context, text string, onStage func(agent.Stage)) command.Envelope
}

// StepResult holds the envelope of a completed command.
type StepResult struct {
	StepID   string           `json:"id"`
	Command  string           `json:"command"`
	Envelope command.Envelope `json:"envelope"`
	Skipped  bool             `json:"skipped,omitempty"`
}

// Runner executes batch commands sequentially through an Executor.
type Runner struct {
	exec    Executor
	log     io.Writer
	dryRun  bool
	nowFunc func() time.Time
}

// NewRunner creates a runner. Progress lines go to log when it is non-nil.
func NewRunner(exec Executor, log io.Writer) *Runner {
	return &Runner{exec: exec, log: log, nowFunc: time.Now}
}

// SetDryRun makes Run print the resolved commands without executing them.
func (r *Runner) SetDryRun(dryRun bool) {
	r.dryRun = dryRun
}

func (r *Runner) logf(format string, args ...any) {
	if r.log != nil {
		fmt.Fprintf(r.log, format, args...)
	}
}

// Run executes every command in order. It stops at the first failed envelope
// unless that command sets continue_on_error; the results so far are returned
// either way.
func (r *Runner) Run(ctx context.Context, b *Batch) ([]StepResult, error) {
	var results []StepResult

	r.logf("Running batch: %s (%d commands)\n", b.Name, len(b.Commands))
	if r.dryRun {
		r.logf("  (dry-run mode, nothing is sent to the model or the spreadsheet)\n")
	}

	for i, step := range b.Commands {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		text := r.interpolate(step.Command)
		r.logf("[%d/%d] %s: %s\n", i+1, len(b.Commands), step.ID, text)

		if r.dryRun {
			results = append(results, StepResult{StepID: step.ID, Command: text, Skipped: true})
			continue
		}

		start := r.nowFunc()
		env := r.exec.Execute(ctx, text, nil)
		results = append(results, StepResult{StepID: step.ID, Command: text, Envelope: env})
		r.logf("  Completed in %s\n", r.nowFunc().Sub(start).Round(time.Millisecond))

		if !env.Success {
			if step.ContinueOnError {
				r.logf("  Command %s failed (continuing): %s\n", step.ID, env.Error)
				continue
			}
			return results, fmt.Errorf("command %q failed: %s", step.ID, env.Error)
		}
	}

	return results, nil
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+)\s*\}\}`)

// interpolate expands ${{ date.today }}, ${{ date.now }} and ${{ env.NAME }}.
func (r *Runner) interpolate(s string) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		expr := strings.TrimSpace(inner[1])

		switch {
		case expr == "date.today":
			return r.nowFunc().Format("2006-01-02")
		case expr == "date.now" || expr == "date.timestamp":
			return r.nowFunc().Format(time.RFC3339)
		case strings.HasPrefix(expr, "env."):
			return os.Getenv(strings.TrimPrefix(expr, "env."))
		}

		return match
	})
}
