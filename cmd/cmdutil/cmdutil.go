// Package cmdutil holds helpers shared by the CLI commands.
package cmdutil

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/version"
	"github.com/klytics/sheetsense/internal/app"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/logging"
	"github.com/klytics/sheetsense/internal/output"
)

// LoadConfig reads the configuration named by --config, or the default search path.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// Logger builds the process logger. --verbose forces debug level. Logs go to
// stderr so stdout stays clean for command output.
func Logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Format, os.Stderr)
}

// Format returns the output format selected by --json.
func Format(cmd *cobra.Command) output.Format {
	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		return output.FormatJSON
	}
	return output.FormatText
}

// BuildApp loads configuration and builds the in-process agent.
func BuildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, Logger(cmd, cfg), version.Version)
}

// ExitError carries a process exit code for a command whose output was already written.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

// EnvelopeError turns a failed envelope into an ExitError; the envelope itself has
// already been printed.
func EnvelopeError(env command.Envelope) error {
	if env.Success {
		return nil
	}
	return &ExitError{Code: output.ExitCode(env), Msg: env.Error}
}
