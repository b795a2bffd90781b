package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCommand()
	want := []string{"serve", "chat", "exec", "batch", "sheets", "discover", "doctor", "config", "completion", "version"}
	for _, name := range want {
		c, _, err := root.Find([]string{name})
		if err != nil || c == root {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRootPersistentFlags(t *testing.T) {
	root := NewRootCommand()
	for _, f := range []string{"config", "json", "verbose", "no-color"} {
		if root.PersistentFlags().Lookup(f) == nil {
			t.Errorf("missing persistent flag --%s", f)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "sheetsense ") {
		t.Errorf("version output = %q", buf.String())
	}
}
