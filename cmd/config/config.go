// Package config provides CLI commands for configuration inspection.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect SheetSense configuration",
		Long: `Show and validate the effective configuration.

Values come from sheetsense.yaml (working directory, ~/.sheetsense or --config)
and SHEETSENSE_* environment variables.`,
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cmdutil.Format(cmd) == output.FormatJSON {
				return output.NewWriterTo(out, output.FormatJSON).WriteJSON(cfg.Settings())
			}

			dim := color.New(color.FgHiBlack)
			for _, s := range cfg.Settings() {
				if s.Value == "" {
					dim.Fprintf(out, "%-24s (unset)\n", s.Key)
					continue
				}
				fmt.Fprintf(out, "%-24s %s\n", s.Key, s.Value)
			}
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.File == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "no config file found (searched . and %s)\n", config.Dir())
				fmt.Fprintf(cmd.OutOrStdout(), "create %s to persist settings\n", filepath.Join(config.Dir(), "sheetsense.yaml"))
				return nil
			}
			return output.NewWriterTo(cmd.OutOrStdout(), output.FormatText).WriteLn(cfg.File)
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}

			issues := cfg.Validate()
			out := cmd.OutOrStdout()

			if cmdutil.Format(cmd) == output.FormatJSON {
				if err := output.NewWriterTo(out, output.FormatJSON).WriteJSON(issues); err != nil {
					return err
				}
			} else {
				errCount, warnCount := 0, 0
				for _, issue := range issues {
					switch issue.Severity {
					case "error":
						errCount++
					case "warning":
						warnCount++
					}
				}

				if errCount == 0 && warnCount == 0 {
					color.New(color.FgGreen).Fprintln(out, "Configuration is valid")
					return nil
				}

				fmt.Fprintf(out, "Config validation: %d errors, %d warnings\n\n", errCount, warnCount)
				for _, issue := range issues {
					switch issue.Severity {
					case "error":
						color.New(color.FgRed).Fprintf(out, "  %s: %s\n", issue.Key, issue.Message)
					case "warning":
						color.New(color.FgYellow).Fprintf(out, "  %s: %s\n", issue.Key, issue.Message)
					}
					if issue.Fix != "" {
						fmt.Fprintf(out, "   Fix: %s\n", issue.Fix)
					}
				}
			}

			if config.HasErrors(issues) {
				return fmt.Errorf("configuration has errors")
			}
			return nil
		},
	}
}
