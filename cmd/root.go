// Package cmd contains all CLI commands for the sheetsense binary.
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/batch"
	"github.com/klytics/sheetsense/cmd/chat"
	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/cmd/completion"
	cmdconfig "github.com/klytics/sheetsense/cmd/config"
	"github.com/klytics/sheetsense/cmd/discover"
	"github.com/klytics/sheetsense/cmd/doctor"
	cmdexec "github.com/klytics/sheetsense/cmd/exec"
	"github.com/klytics/sheetsense/cmd/serve"
	"github.com/klytics/sheetsense/cmd/sheets"
	"github.com/klytics/sheetsense/cmd/version"
	"github.com/klytics/sheetsense/internal/output"
)

var (
	configPath string
	jsonOutput bool
	verbose    bool
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetsense",
		Short: "Talk to your spreadsheet in plain English",
		Long: `SheetSense turns plain-English requests into spreadsheet operations.

Ask it to write a cell, read a range, append a row, list the tabs or find and
replace text. Run it as an HTTP relay with a browser chat panel (serve), as an
interactive terminal chat (chat), or one command at a time (exec, batch).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./sheetsense.yaml or ~/.sheetsense/sheetsense.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(chat.NewCommand())
	rootCmd.AddCommand(cmdexec.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())
	rootCmd.AddCommand(sheets.NewCommand())
	rootCmd.AddCommand(discover.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		// the failed envelope has already been written
		stop()
		os.Exit(exitErr.Code)
	}
	output.WriteError("%s", err)
	stop()
	os.Exit(1)
}
