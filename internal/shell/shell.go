// Package shell provides the interactive SheetSense chat REPL.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/output"
)

// Executor runs one chat command. *agent.Agent and *relayclient.Client both satisfy it.
type Executor interface {
	Execute(ctx context.Context, text string, onStage func(agent.Stage)) command.Envelope
}

// builtins are handled by the session and never sent to the model.
var builtins = []string{"help", "history", "examples", "exit", "quit"}

// Session manages an interactive chat session.
type Session struct {
	Executor       Executor
	Out            io.Writer
	Format         output.Format
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// Target is shown in the banner, e.g. the relay URL or the spreadsheet id.
	Target string
}

// NewSession creates a new interactive session writing to stdout.
func NewSession(exec Executor, format output.Format) *Session {
	histFile := filepath.Join(config.Dir(), "chat_history")
	os.MkdirAll(filepath.Dir(histFile), 0755)

	return &Session{
		Executor:    exec,
		Out:         os.Stdout,
		Format:      format,
		HistoryFile: histFile,
		StartTime:   time.Now(),
	}
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	if s.Executor == nil {
		return fmt.Errorf("chat executor not configured")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheets> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.Out, "SheetSense spreadsheet chat")
	if s.Target != "" {
		color.New(color.FgHiBlack).Fprintf(s.Out, "Connected to %s\n", s.Target)
	}
	fmt.Fprintln(s.Out, "Type a request in plain English, 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(s.Out)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if s.Handle(ctx, line) {
			return nil
		}
	}
	return nil
}

// Handle processes one input line and reports whether the session should end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	s.CommandHistory = append(s.CommandHistory, line)

	switch line {
	case "exit", "quit":
		elapsed := time.Since(s.StartTime)
		fmt.Fprintf(s.Out, "\nSession ended. %d commands run in %s.\n",
			len(s.CommandHistory)-1, formatDuration(elapsed))
		return true
	case "help":
		s.printHelp()
	case "examples":
		s.printExamples()
	case "history":
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(s.Out, "  %d  %s\n", i+1, cmd)
		}
	default:
		env := s.Eval(ctx, line)
		if err := output.NewWriterTo(s.Out, s.Format).WriteEnvelope(env); err != nil {
			fmt.Fprintf(s.Out, "Error: %s\n", err)
		}
	}
	return false
}

// Eval sends a single request to the executor and returns its envelope. Stages
// are echoed in text mode.
func (s *Session) Eval(ctx context.Context, text string) command.Envelope {
	var onStage func(agent.Stage)
	if s.Format == output.FormatText {
		dim := color.New(color.FgHiBlack)
		onStage = func(stage agent.Stage) {
			if stage != agent.StageDone {
				dim.Fprintf(s.Out, "  %s...\n", stage)
			}
		}
	}
	return s.Executor.Execute(ctx, text, onStage)
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	input = strings.TrimSpace(input)
	var matches []string
	for _, b := range builtins {
		if strings.HasPrefix(b, input) {
			matches = append(matches, b)
		}
	}
	sort.Strings(matches)
	return matches
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.Out, "Ask for spreadsheet changes in plain English. Supported operations:")
	fmt.Fprintln(s.Out)
	for _, spec := range command.Catalog() {
		fmt.Fprintf(s.Out, "  %-13s %s\n", spec.Operation, spec.Description)
	}
	fmt.Fprintln(s.Out)
	fmt.Fprintln(s.Out, "Chat commands:")
	fmt.Fprintln(s.Out, "  help       show this help")
	fmt.Fprintln(s.Out, "  examples   show example requests")
	fmt.Fprintln(s.Out, "  history    show command history")
	fmt.Fprintln(s.Out, "  exit       leave the chat")
}

func (s *Session) printExamples() {
	for _, spec := range command.Catalog() {
		fmt.Fprintf(s.Out, "  %s\n", spec.Example)
	}
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, b := range builtins {
		items = append(items, readline.PcItem(b))
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
