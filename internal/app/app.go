// Package app wires configuration into a ready-to-use agent.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/ai"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/events"
	"github.com/klytics/sheetsense/internal/interpret"
	"github.com/klytics/sheetsense/internal/logging"
	"github.com/klytics/sheetsense/internal/sheets"
	"github.com/klytics/sheetsense/internal/sheets/google"
	"github.com/klytics/sheetsense/internal/sheets/workbook"
)

const logPrefix = "app:app"

// App holds the components built from one configuration.
type App struct {
	Config *config.Config
	Log    *slog.Logger
	Client sheets.Client
	Agent  *agent.Agent

	closers []func() error
}

// Build creates the provider, spreadsheet client, interpreter, event publisher and
// agent. A spreadsheet client that cannot be constructed does not fail the build;
// the agent then reports an unhealthy backend and every command fails upstream.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger, version string) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, err
	}

	client, err := OpenClient(ctx, cfg, log)
	if err != nil {
		log.Warn(fmt.Sprintf("%s - spreadsheet client unavailable", logPrefix), "backend", cfg.Sheets.Backend, "error", err)
		client = sheets.Unavailable(err)
	}

	a := &App{Config: cfg, Log: log, Client: client}

	var pub events.Publisher = &events.NoOpPublisher{}
	if cfg.Events.NATSURL != "" {
		nc, err := events.Connect(cfg.Events.NATSURL, "sheetsense", log)
		if err != nil {
			log.Warn(fmt.Sprintf("%s - event publishing disabled", logPrefix), "error", err)
		} else {
			np := events.NewNATSPublisher(nc, cfg.Events.Subject, log)
			a.closers = append(a.closers, np.Close)
			pub = np
		}
	}

	a.Agent = agent.New(agent.Options{
		Client:       client,
		Interpreter:  interpret.New(provider, cfg.Sheets.DefaultSheet, log),
		DefaultSheet: cfg.Sheets.DefaultSheet,
		Publisher:    pub,
		Version:      version,
		Logger:       log,
	})

	log.Debug(fmt.Sprintf("%s - agent ready", logPrefix),
		"provider", provider.Name(),
		"backend", cfg.Sheets.Backend,
		"spreadsheet", client.SpreadsheetID(),
	)
	return a, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenClient builds the configured spreadsheet backend.
func OpenClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (sheets.Client, error) {
	switch cfg.Sheets.Backend {
	case config.BackendXLSX:
		if cfg.Sheets.WorkbookPath == "" {
			return nil, fmt.Errorf("xlsx backend selected but sheets.workbook_path is not set")
		}
		return workbook.Open(cfg.Sheets.WorkbookPath)
	case config.BackendGoogle, "":
		return google.New(ctx, google.Options{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Endpoint:        cfg.Sheets.Endpoint,
			Logger:          log,
		})
	default:
		return nil, fmt.Errorf("unknown spreadsheet backend %q (use google or xlsx)", cfg.Sheets.Backend)
	}
}

// OpenDiscoverer builds a client that can list reachable spreadsheets without
// selecting one.
func OpenDiscoverer(ctx context.Context, cfg *config.Config, log *slog.Logger) (sheets.Discoverer, error) {
	switch cfg.Sheets.Backend {
	case config.BackendXLSX:
		if cfg.Sheets.WorkbookPath == "" {
			return nil, fmt.Errorf("xlsx backend selected but sheets.workbook_path is not set")
		}
		return workbook.Open(cfg.Sheets.WorkbookPath)
	case config.BackendGoogle, "":
		return google.New(ctx, google.Options{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Endpoint:        cfg.Sheets.Endpoint,
			Logger:          log,
			DiscoverOnly:    true,
		})
	default:
		return nil, fmt.Errorf("unknown spreadsheet backend %q (use google or xlsx)", cfg.Sheets.Backend)
	}
}

// TabPreview is a tab name with the value of its A1 cell.
type TabPreview struct {
	Name string `json:"name"`
	A1   string `json:"a1"`
}

// PreviewTabs reads A1 of every tab. A tab whose read fails reports the error text.
func PreviewTabs(ctx context.Context, client sheets.Client) ([]TabPreview, error) {
	tabs, err := client.ListSheets(ctx)
	if err != nil {
		return nil, err
	}
	a1, _ := sheets.ParseRange("A1")
	out := make([]TabPreview, 0, len(tabs))
	for _, name := range tabs {
		p := TabPreview{Name: name}
		grid, err := client.ReadRange(ctx, sheets.Ref{SpreadsheetID: client.SpreadsheetID(), Sheet: name, Range: &a1})
		switch {
		case err != nil:
			p.A1 = "error: " + err.Error()
		case len(grid) > 0 && len(grid[0]) > 0:
			p.A1 = grid[0][0]
		}
		out = append(out, p)
	}
	return out, nil
}
