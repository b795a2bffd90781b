// Package discover provides the "sheetsense discover" command.
package discover

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/app"
	"github.com/klytics/sheetsense/internal/output"
)

// NewCommand creates the "discover" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List spreadsheets the configured credentials can reach",
		Long: `Lists the spreadsheets shared with the service account (google backend) or the
.xlsx workbooks next to the configured one (xlsx backend). Use the id as
sheets.spreadsheet_id to pick one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			d, err := app.OpenDiscoverer(cmd.Context(), cfg, cmdutil.Logger(cmd, cfg))
			if err != nil {
				return err
			}
			found, err := d.Discover(cmd.Context())
			if err != nil {
				return err
			}

			w := output.NewWriterTo(cmd.OutOrStdout(), cmdutil.Format(cmd))
			if cmdutil.Format(cmd) == output.FormatJSON {
				return w.WriteJSON(found)
			}
			rows := [][]string{{"Name", "ID", "Created"}}
			for _, s := range found {
				created := ""
				if !s.CreatedTime.IsZero() {
					created = s.CreatedTime.Format("2006-01-02")
				}
				rows = append(rows, []string{s.Name, s.ID, created})
			}
			w.Table("Spreadsheets", rows)
			return nil
		},
	}
}
