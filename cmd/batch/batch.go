// Package batch provides the "sheetsense batch" command that runs a YAML file of commands.
package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	batchpkg "github.com/klytics/sheetsense/internal/batch"
	"github.com/klytics/sheetsense/internal/output"
	"github.com/klytics/sheetsense/internal/relayclient"
)

// NewCommand returns the batch subcommand.
func NewCommand() *cobra.Command {
	var (
		dryRun    bool
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "batch <commands.yaml>",
		Short: "Run a file of natural-language commands in order",
		Long: `Runs every command in a YAML batch file sequentially:

  name: monthly-update
  commands:
    - id: header
      command: Put Month in A1
    - id: row
      command: Add a row with ${{ date.today }}, 1200
      continue_on_error: true

The batch stops at the first failed command unless it sets continue_on_error.
Commands may reference ${{ date.today }}, ${{ date.now }} and ${{ env.NAME }}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			b, err := batchpkg.Load(args[0])
			if err != nil {
				return err
			}

			var exec batchpkg.Executor
			if serverURL != "" {
				cfg, err := cmdutil.LoadConfig(cmd)
				if err != nil {
					return err
				}
				exec = relayclient.New(serverURL, cfg.Server.WriteTimeout)
			} else if !dryRun {
				a, err := cmdutil.BuildApp(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				exec = a.Agent
			}

			var progress io.Writer
			if verbose || dryRun {
				progress = cmd.ErrOrStderr()
			}
			runner := batchpkg.NewRunner(exec, progress)
			runner.SetDryRun(dryRun)

			results, runErr := runner.Run(cmd.Context(), b)

			if jsonFlag {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
				return runErr
			}

			w := output.NewWriterTo(cmd.OutOrStdout(), output.FormatText)
			bold := color.New(color.Bold)
			for _, r := range results {
				bold.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.StepID, r.Command)
				if r.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "  (skipped)")
					continue
				}
				if err := w.WriteEnvelope(r.Envelope); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved commands without running them")
	cmd.Flags().StringVar(&serverURL, "server", "", "Relay URL to send commands to")
	return cmd
}
