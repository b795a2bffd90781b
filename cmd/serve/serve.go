// Package serve provides the "sheetsense serve" command that runs the HTTP relay.
package serve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/server"
)

// NewCommand creates the "serve" command.
func NewCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay and browser chat panel",
		Long: `Starts the SheetSense relay. The browser chat panel is served at /, commands
are accepted on POST /execute-command and GET /execute-stream (server-sent
events), and /health reports spreadsheet connectivity.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cmdutil.BuildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			srvCfg := a.Config.Server
			if cmd.Flags().Changed("host") {
				srvCfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				srvCfg.Port = port
			}
			if err := validatePort(srvCfg); err != nil {
				return err
			}

			return server.New(a.Agent, srvCfg, a.Log).Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port and PORT)")
	return cmd
}

func validatePort(s config.ServerConfig) error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d, use a value between 1 and 65535", s.Port)
	}
	return nil
}
