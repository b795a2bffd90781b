// Package exec provides the "sheetsense exec" one-shot command.
package exec

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/output"
	"github.com/klytics/sheetsense/internal/relayclient"
)

// NewCommand creates the "exec" command.
func NewCommand() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "exec <request...>",
		Short: "Run one natural-language spreadsheet command",
		Example: `  sheetsense exec "Put Hello in cell A1"
  sheetsense exec --json Replace Manager with Director in B2:B20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			var env command.Envelope
			if serverURL != "" {
				cfg, err := cmdutil.LoadConfig(cmd)
				if err != nil {
					return err
				}
				env = relayclient.New(serverURL, cfg.Server.WriteTimeout).Execute(cmd.Context(), text, nil)
			} else {
				a, err := cmdutil.BuildApp(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				env = a.Agent.Execute(cmd.Context(), text, nil)
			}

			if err := output.NewWriterTo(cmd.OutOrStdout(), cmdutil.Format(cmd)).WriteEnvelope(env); err != nil {
				return err
			}
			return cmdutil.EnvelopeError(env)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Relay URL to send the command to")
	return cmd
}
