package shell

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/output"
)

func init() {
	color.NoColor = true
}

type stubExecutor struct {
	texts []string
	env   command.Envelope
}

func (e *stubExecutor) Execute(_ context.Context, text string, onStage func(agent.Stage)) command.Envelope {
	e.texts = append(e.texts, text)
	if onStage != nil {
		onStage(agent.StageInterpreting)
		onStage(agent.StageExecuting)
		onStage(agent.StageDone)
	}
	return e.env
}

func newTestSession(env command.Envelope, format output.Format) (*Session, *stubExecutor, *bytes.Buffer) {
	exec := &stubExecutor{env: env}
	var buf bytes.Buffer
	s := &Session{Executor: exec, Out: &buf, Format: format, StartTime: time.Now()}
	return s, exec, &buf
}

func TestHandleSendsTextToExecutor(t *testing.T) {
	env := command.Succeed(command.WriteCell, command.WriteResult{Sheet: "Sheet1", Cell: "A1", Value: "Hello"})
	s, exec, buf := newTestSession(env, output.FormatText)

	if s.Handle(context.Background(), "  put Hello in A1  ") {
		t.Fatal("session ended")
	}
	if !reflect.DeepEqual(exec.texts, []string{"put Hello in A1"}) {
		t.Errorf("executor got %v", exec.texts)
	}
	out := buf.String()
	for _, want := range []string{"interpreting...", "executing...", `Wrote "Hello" to Sheet1!A1`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "done...") {
		t.Errorf("done stage should not be echoed: %q", out)
	}
}

func TestHandleJSONModeSkipsStages(t *testing.T) {
	env := command.Fail(command.Unsupported("delete_sheet"))
	s, _, buf := newTestSession(env, output.FormatJSON)
	s.Handle(context.Background(), "delete everything")

	if strings.Contains(buf.String(), "interpreting") {
		t.Errorf("stages printed in JSON mode: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"kind": "unsupported_operation"`) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestHandleBuiltins(t *testing.T) {
	s, exec, buf := newTestSession(command.Envelope{}, output.FormatText)
	ctx := context.Background()

	s.Handle(ctx, "help")
	if !strings.Contains(buf.String(), "find_replace") {
		t.Errorf("help output = %q", buf.String())
	}
	buf.Reset()

	s.Handle(ctx, "examples")
	if !strings.Contains(buf.String(), "Replace Manager with Director") {
		t.Errorf("examples output = %q", buf.String())
	}
	buf.Reset()

	s.Handle(ctx, "history")
	if !strings.Contains(buf.String(), "1  help") || !strings.Contains(buf.String(), "3  history") {
		t.Errorf("history output = %q", buf.String())
	}

	if len(exec.texts) != 0 {
		t.Errorf("builtins reached the executor: %v", exec.texts)
	}
}

func TestHandleExit(t *testing.T) {
	for _, word := range []string{"exit", "quit"} {
		s, _, buf := newTestSession(command.Envelope{}, output.FormatText)
		s.Handle(context.Background(), "help")
		if !s.Handle(context.Background(), word) {
			t.Errorf("%s did not end the session", word)
		}
		if !strings.Contains(buf.String(), "1 commands run") {
			t.Errorf("summary = %q", buf.String())
		}
	}
}

func TestHandleEmptyLine(t *testing.T) {
	s, exec, _ := newTestSession(command.Envelope{}, output.FormatText)
	s.Handle(context.Background(), "   ")
	if len(s.CommandHistory) != 0 || len(exec.texts) != 0 {
		t.Error("empty line was recorded or executed")
	}
}

func TestRunWithoutExecutor(t *testing.T) {
	s := &Session{}
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error without executor")
	}
}

func TestComplete(t *testing.T) {
	s := &Session{}
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"examples", "exit", "help", "history", "quit"}},
		{"h", []string{"help", "history"}},
		{"ex", []string{"examples", "exit"}},
		{"put", nil},
	}
	for _, tt := range tests {
		if got := s.Complete(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Complete(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m 0s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.input); got != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
