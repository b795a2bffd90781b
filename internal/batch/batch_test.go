package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
)

// scriptedExecutor fails every command listed in fail.
type scriptedExecutor struct {
	fail map[string]bool
	ran  []string
}

func (e *scriptedExecutor) Execute(_ context.Context, text string, _ func(agent.Stage)) command.Envelope {
	e.ran = append(e.ran, text)
	if e.fail[text] {
		return command.Fail(command.Interpretationf(nil, "could not understand %q", text))
	}
	return command.Succeed(command.ListSheets, command.ListResult{Sheets: []string{"Sheet1"}})
}

func TestParse(t *testing.T) {
	b, err := Parse([]byte(`name: monthly
commands:
  - id: header
    command: Put Month in A1
  - command: Add a row with Jan, 100
    continue_on_error: true
`))
	if err != nil {
		t.Fatal(err)
	}
	if b.Name != "monthly" || len(b.Commands) != 2 {
		t.Fatalf("batch = %+v", b)
	}
	if b.Commands[1].ID != "step2" || !b.Commands[1].ContinueOnError {
		t.Errorf("second command = %+v", b.Commands[1])
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "name: [",
		"no name":       "commands:\n  - command: x\n",
		"no commands":   "name: empty\n",
		"empty command": "name: x\ncommands:\n  - id: a\n",
		"duplicate ids": "name: x\ncommands:\n  - id: a\n    command: one\n  - id: a\n    command: two\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte("name: x\ncommands:\n  - command: list sheets\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if b.Commands[0].Command != "list sheets" {
		t.Errorf("batch = %+v", b)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	exec := &scriptedExecutor{fail: map[string]bool{"two": true}}
	b := &Batch{Name: "t", Commands: []Step{{ID: "a", Command: "one"}, {ID: "b", Command: "two"}, {ID: "c", Command: "three"}}}

	results, err := NewRunner(exec, nil).Run(context.Background(), b)
	if err == nil || !strings.Contains(err.Error(), `"b"`) {
		t.Errorf("err = %v", err)
	}
	if !reflect.DeepEqual(exec.ran, []string{"one", "two"}) {
		t.Errorf("ran = %v", exec.ran)
	}
	if len(results) != 2 || results[1].Envelope.Kind != command.KindInterpretation {
		t.Errorf("results = %+v", results)
	}
}

func TestRunContinueOnError(t *testing.T) {
	exec := &scriptedExecutor{fail: map[string]bool{"two": true}}
	b := &Batch{Name: "t", Commands: []Step{
		{ID: "a", Command: "one"},
		{ID: "b", Command: "two", ContinueOnError: true},
		{ID: "c", Command: "three"},
	}}

	var log bytes.Buffer
	results, err := NewRunner(exec, &log).Run(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || results[1].Envelope.Success || !results[2].Envelope.Success {
		t.Errorf("results = %+v", results)
	}
	if !strings.Contains(log.String(), "failed (continuing)") {
		t.Errorf("log = %q", log.String())
	}
}

func TestRunDryRun(t *testing.T) {
	exec := &scriptedExecutor{}
	r := NewRunner(exec, nil)
	r.SetDryRun(true)
	results, err := r.Run(context.Background(), &Batch{Name: "t", Commands: []Step{{ID: "a", Command: "one"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(exec.ran) != 0 {
		t.Errorf("dry run executed %v", exec.ran)
	}
	if len(results) != 1 || !results[0].Skipped {
		t.Errorf("results = %+v", results)
	}
}

func TestRunCancelled(t *testing.T) {
	exec := &scriptedExecutor{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(exec, nil).Run(ctx, &Batch{Name: "t", Commands: []Step{{ID: "a", Command: "one"}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(exec.ran) != 0 {
		t.Errorf("ran = %v", exec.ran)
	}
}

func TestInterpolate(t *testing.T) {
	t.Setenv("SHEETSENSE_TEST_NAME", "Ada")
	r := NewRunner(nil, nil)
	r.nowFunc = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	tests := []struct {
		in, want string
	}{
		{"Put ${{ date.today }} in A1", "Put 2026-03-04 in A1"},
		{"Stamp ${{date.now}}", "Stamp 2026-03-04T05:06:07Z"},
		{"Add a row with ${{ env.SHEETSENSE_TEST_NAME }}", "Add a row with Ada"},
		{"Keep ${{ steps.x.output }}", "Keep ${{ steps.x.output }}"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := r.interpolate(tt.in); got != tt.want {
			t.Errorf("interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunInterpolatesCommands(t *testing.T) {
	t.Setenv("SHEETSENSE_TEST_CELL", "B7")
	exec := &scriptedExecutor{}
	_, err := NewRunner(exec, nil).Run(context.Background(), &Batch{Name: "t", Commands: []Step{
		{ID: "a", Command: "Read ${{ env.SHEETSENSE_TEST_CELL }}"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if exec.ran[0] != "Read B7" {
		t.Errorf("ran = %v", exec.ran)
	}
}
