// Package sheets provides the "sheetsense sheets" command that lists the tabs of the spreadsheet.
package sheets

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/app"
	"github.com/klytics/sheetsense/internal/output"
	"github.com/klytics/sheetsense/internal/relayclient"
)

// NewCommand creates the "sheets" command.
func NewCommand() *cobra.Command {
	var (
		withA1    bool
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List the tabs of the configured spreadsheet",
		Long:  "Lists every tab of the configured spreadsheet. With --a1 the value of each tab's A1 cell is shown too.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			w := output.NewWriterTo(cmd.OutOrStdout(), cmdutil.Format(cmd))
			jsonFlag := cmdutil.Format(cmd) == output.FormatJSON

			if serverURL != "" {
				tabs, err := relayclient.New(serverURL, cfg.Server.WriteTimeout).Sheets(cmd.Context())
				if err != nil {
					return err
				}
				if jsonFlag {
					return w.WriteJSON(tabs)
				}
				w.List("Sheets", tabs)
				return nil
			}

			client, err := app.OpenClient(cmd.Context(), cfg, cmdutil.Logger(cmd, cfg))
			if err != nil {
				return err
			}

			if withA1 {
				previews, err := app.PreviewTabs(cmd.Context(), client)
				if err != nil {
					return err
				}
				if jsonFlag {
					return w.WriteJSON(previews)
				}
				rows := [][]string{{"Sheet", "A1"}}
				for _, p := range previews {
					rows = append(rows, []string{p.Name, p.A1})
				}
				w.Table("Sheets of "+client.SpreadsheetID(), rows)
				return nil
			}

			tabs, err := client.ListSheets(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag {
				return w.WriteJSON(tabs)
			}
			w.List("Sheets", tabs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withA1, "a1", false, "Show the value of cell A1 on every tab")
	cmd.Flags().StringVar(&serverURL, "server", "", "Ask a running relay instead of the spreadsheet directly")
	return cmd
}
