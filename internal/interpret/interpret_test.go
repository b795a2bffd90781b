package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/klytics/sheetsense/internal/ai"
	"github.com/klytics/sheetsense/internal/command"
)

// stubProvider returns a canned reply and records what it was sent.
type stubProvider struct {
	reply  string
	err    error
	calls  int
	system string
	user   string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Infer(ctx context.Context, system string, messages []ai.Message, opts ai.InferOptions) (*ai.InferResult, error) {
	s.calls++
	s.system = system
	if len(messages) > 0 {
		s.user = messages[len(messages)-1].Content
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ai.InferResult{Content: s.reply, Model: "stub-1"}, nil
}

func kindOf(t *testing.T, err error) command.Kind {
	t.Helper()
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error %v (%T) is not a *command.Error", err, err)
	}
	return cmdErr.Kind
}

func TestInterpretEveryOperation(t *testing.T) {
	tests := []struct {
		reply string
		op    command.Operation
	}{
		{`{"operation":"write_cell","params":{"cell":"A1","value":"Hello World"}}`, command.WriteCell},
		{`{"operation":"read_range","params":{"range":"A1:C5"}}`, command.ReadRange},
		{`{"operation":"append_row","params":{"values":["John","Doe","Engineer"]}}`, command.AppendRow},
		{`{"operation":"find_replace","params":{"find":"Manager","replace":"Director","range":"B1:B10"}}`, command.FindReplace},
		{`{"operation":"list_sheets","params":{}}`, command.ListSheets},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			p := &stubProvider{reply: tt.reply}
			in, err := New(p, "", nil).Interpret(context.Background(), "do it", []string{"Sheet1"})
			if err != nil {
				t.Fatal(err)
			}
			if in.Operation() != tt.op {
				t.Errorf("op = %s, want %s", in.Operation(), tt.op)
			}
			if p.calls != 1 {
				t.Errorf("model calls = %d, want 1", p.calls)
			}
		})
	}
}

func TestInterpretSendsPromptAndText(t *testing.T) {
	p := &stubProvider{reply: `{"operation":"list_sheets"}`}
	if _, err := New(p, "Budget", nil).Interpret(context.Background(), "  what tabs exist?  ", []string{"Budget", "My Tab"}); err != nil {
		t.Fatal(err)
	}
	if p.user != "what tabs exist?" {
		t.Errorf("user message = %q", p.user)
	}
	for _, want := range []string{"write_cell", "read_range", "append_row", "find_replace", "list_sheets", `"My Tab"`, `Active tab: "Budget"`} {
		if !strings.Contains(p.system, want) {
			t.Errorf("system prompt missing %s", want)
		}
	}
}

func TestInterpretEmptyText(t *testing.T) {
	p := &stubProvider{reply: `{"operation":"list_sheets"}`}
	_, err := New(p, "", nil).Interpret(context.Background(), "   ", nil)
	if kindOf(t, err) != command.KindValidation {
		t.Errorf("kind = %s", kindOf(t, err))
	}
	if p.calls != 0 {
		t.Error("model must not be called for empty text")
	}
}

func TestInterpretFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		kind  command.Kind
	}{
		{"unsupported op", `{"operation":"delete_sheet","params":{"sheet":"Data"}}`, command.KindUnsupported},
		{"not json", `Sure! I'll write that for you.`, command.KindInterpretation},
		{"truncated", `{"operation":"write_cell","params":{"cell":"A1"`, command.KindInterpretation},
		{"empty", ``, command.KindInterpretation},
		{"model error", `{"error":"I cannot delete the spreadsheet"}`, command.KindInterpretation},
		{"no operation", `{"params":{"cell":"A1"}}`, command.KindInterpretation},
		{"missing param", `{"operation":"write_cell","params":{"cell":"A1"}}`, command.KindValidation},
		{"bad cell", `{"operation":"write_cell","params":{"cell":"row one","value":"x"}}`, command.KindValidation},
		{"whole sheet unconfirmed", `{"operation":"find_replace","params":{"find":"a","replace":"b"}}`, command.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{reply: tt.reply}
			_, err := New(p, "", nil).Interpret(context.Background(), "x", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := kindOf(t, err); got != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", got, tt.kind, err)
			}
			if p.calls != 1 {
				t.Errorf("model calls = %d, want exactly 1", p.calls)
			}
		})
	}
}

func TestInterpretModelErrorMessage(t *testing.T) {
	p := &stubProvider{reply: `{"error":"Which cell should I write to?"}`}
	_, err := New(p, "", nil).Interpret(context.Background(), "write hello", nil)
	if err == nil || err.Error() != "Which cell should I write to?" {
		t.Errorf("err = %v", err)
	}
}

func TestInterpretProviderFailure(t *testing.T) {
	p := &stubProvider{err: fmt.Errorf("gemini: %w", ai.ErrRateLimited)}
	_, err := New(p, "", nil).Interpret(context.Background(), "read A1", nil)
	if kindOf(t, err) != command.KindInterpretation {
		t.Errorf("kind = %s", kindOf(t, err))
	}
	if !errors.Is(err, ai.ErrRateLimited) {
		t.Errorf("provider error not wrapped: %v", err)
	}
}

func TestParseResponseFences(t *testing.T) {
	tests := []string{
		"```json\n{\"operation\":\"list_sheets\",\"params\":{}}\n```",
		"```\n{\"operation\":\"list_sheets\"}\n```",
		"```json{\"operation\":\"list_sheets\"}```",
		"Here you go:\n{\"operation\":\"list_sheets\"}\nDone.",
		`{"function":"list_sheets","params":{}}`,
	}
	for _, raw := range tests {
		in, err := ParseResponse(raw)
		if err != nil {
			t.Errorf("ParseResponse(%q): %v", raw, err)
			continue
		}
		if in.Operation() != command.ListSheets {
			t.Errorf("ParseResponse(%q) op = %s", raw, in.Operation())
		}
	}
}

func TestBuildPromptWithoutSheets(t *testing.T) {
	p := BuildPrompt(nil, "")
	if !strings.Contains(p, "tabs are unknown") {
		t.Error("prompt should say tabs are unknown")
	}
	if strings.Contains(p, "Active tab") {
		t.Error("no active tab without sheets or default")
	}
	if !strings.Contains(p, `"scope": "sheet"`) {
		t.Error("prompt should explain whole-tab confirmation")
	}
}
