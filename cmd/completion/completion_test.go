package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func run(t *testing.T, shell string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "sheetsense"}
	root.AddCommand(&cobra.Command{Use: "chat", Short: "Chat with your spreadsheet", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(NewCommand(root))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"completion", shell})
	err := root.Execute()
	return buf.String(), err
}

func TestCompletionScripts(t *testing.T) {
	tests := map[string]string{
		"bash":       "__start_sheetsense",
		"zsh":        "#compdef sheetsense",
		"fish":       "complete -c sheetsense",
		"powershell": "Register-ArgumentCompleter",
	}
	for shell, want := range tests {
		t.Run(shell, func(t *testing.T) {
			out, err := run(t, shell)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, want) {
				t.Errorf("%s completion missing %q", shell, want)
			}
		})
	}
}

func TestCompletionUnsupportedShell(t *testing.T) {
	if _, err := run(t, "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
