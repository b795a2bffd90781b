// Package chat provides the "sheetsense chat" interactive REPL command.
package chat

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/output"
	"github.com/klytics/sheetsense/internal/relayclient"
	"github.com/klytics/sheetsense/internal/shell"
)

// NewCommand creates the "chat" command.
func NewCommand() *cobra.Command {
	var (
		serverURL string
		evalCmd   string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with your spreadsheet in the terminal",
		Long: `Start an interactive chat. Each line is interpreted by the language model and
executed against the spreadsheet.

By default commands run in-process. With --server they are sent to a running
relay (sheetsense serve) instead.`,
		Example: `  sheetsense chat
  sheetsense chat --server http://localhost:5000
  sheetsense chat --eval "Show me data in A1:E5"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				exec   shell.Executor
				target string
			)
			if serverURL != "" {
				cfg, err := cmdutil.LoadConfig(cmd)
				if err != nil {
					return err
				}
				exec = relayclient.New(serverURL, cfg.Server.WriteTimeout)
				target = serverURL
			} else {
				a, err := cmdutil.BuildApp(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				exec = a.Agent
				target = a.Client.SpreadsheetID()
			}

			session := shell.NewSession(exec, cmdutil.Format(cmd))
			session.Out = cmd.OutOrStdout()
			session.Target = target

			if evalCmd != "" {
				env := session.Eval(cmd.Context(), evalCmd)
				if err := output.NewWriterTo(cmd.OutOrStdout(), session.Format).WriteEnvelope(env); err != nil {
					return err
				}
				return cmdutil.EnvelopeError(env)
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Relay URL to send commands to instead of running them in-process")
	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	return cmd
}
