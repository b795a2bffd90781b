// Package doctor provides the "sheetsense doctor" command for checking setup health.
package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetsense/cmd/cmdutil"
	"github.com/klytics/sheetsense/internal/app"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/logging"
	"github.com/klytics/sheetsense/internal/relayclient"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	var (
		offline   bool
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and spreadsheet connectivity",
		Long:  "Run diagnostic checks to verify SheetSense is properly configured and can reach its spreadsheet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(cmd)
			if err != nil {
				return err
			}

			checks := runChecks(cmd.Context(), cfg, !offline)
			if serverURL != "" {
				checks = append(checks, relayCheck(cmd.Context(), serverURL))
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(checks)
			}

			out := cmd.OutOrStdout()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Fprintln(out, "SheetSense Doctor")
			fmt.Fprintln(out, "=================")
			fmt.Fprintln(out)

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
				if c.Fix != "" && c.Status != "ok" {
					fmt.Fprintf(out, "      fix: %s\n", c.Fix)
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the live spreadsheet check")
	cmd.Flags().StringVar(&serverURL, "server", "", "Also check a running relay's /health")
	return cmd
}

func runChecks(ctx context.Context, cfg *config.Config, online bool) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	if cfg.File != "" {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: cfg.File})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "none found, using defaults and environment",
			Fix:     fmt.Sprintf("create sheetsense.yaml in the working directory or %s", config.Dir()),
		})
	}

	provider := fmt.Sprintf("%s (key %s)", cfg.AI.Provider, cfg.MaskedAPIKey())
	if cfg.AI.Provider == "ollama" {
		provider = fmt.Sprintf("ollama at %s", cfg.AI.OllamaHost)
	}
	issues := cfg.Validate()
	for _, issue := range issues {
		checks = append(checks, Check{
			Name:    issue.Key,
			Status:  issue.Severity,
			Message: issue.Message,
			Fix:     issue.Fix,
		})
	}
	if !config.HasErrors(issues) {
		checks = append(checks, Check{Name: "Model Provider", Status: "ok", Message: provider})
	}

	if !online || config.HasErrors(issues) {
		return checks
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := app.OpenClient(ctx, cfg, logging.Nop())
	if err != nil {
		return append(checks, Check{
			Name:    "Spreadsheet",
			Status:  "error",
			Message: err.Error(),
			Fix:     "check the credentials and share the spreadsheet with the service account",
		})
	}
	tabs, err := client.ListSheets(ctx)
	if err != nil {
		return append(checks, Check{
			Name:    "Spreadsheet",
			Status:  "error",
			Message: fmt.Sprintf("%s: %v", client.SpreadsheetID(), err),
		})
	}
	return append(checks, Check{
		Name:    "Spreadsheet",
		Status:  "ok",
		Message: fmt.Sprintf("%s (%d tabs)", client.SpreadsheetID(), len(tabs)),
	})
}

func relayCheck(ctx context.Context, url string) Check {
	h, err := relayclient.New(url, 10*time.Second).Health(ctx)
	switch {
	case err != nil:
		return Check{Name: "Relay", Status: "error", Message: err.Error(), Fix: "start it with 'sheetsense serve'"}
	case h.Status != "ok":
		return Check{Name: "Relay", Status: "warning", Message: fmt.Sprintf("%s is up but its spreadsheet is unreachable", url)}
	default:
		return Check{Name: "Relay", Status: "ok", Message: fmt.Sprintf("%s (%d sheets)", url, h.AvailableSheets)}
	}
}
