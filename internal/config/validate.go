package config

import (
	"fmt"
	"os"
)

// Issue represents a configuration problem.
type Issue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Validate checks the configuration for common problems.
func (c *Config) Validate() []Issue {
	var issues []Issue

	switch c.AI.Provider {
	case "gemini", "anthropic", "openai":
		if c.AI.APIKey == "" {
			env := providerKeyEnv[c.AI.Provider]
			issues = append(issues, Issue{
				Key:      "ai.api_key",
				Severity: "error",
				Message:  fmt.Sprintf("no API key for provider %q (set %s or SHEETSENSE_AI_API_KEY)", c.AI.Provider, env),
				Fix:      fmt.Sprintf("export %s=...", env),
			})
		}
	case "ollama":
		if c.AI.OllamaHost == "" {
			issues = append(issues, Issue{
				Key:      "ai.ollama_host",
				Severity: "error",
				Message:  "ollama provider selected but no host configured",
				Fix:      "export OLLAMA_HOST=http://localhost:11434",
			})
		}
	default:
		issues = append(issues, Issue{
			Key:      "ai.provider",
			Severity: "error",
			Message:  fmt.Sprintf("unknown provider %q", c.AI.Provider),
			Fix:      "use one of: gemini, anthropic, openai, ollama",
		})
	}

	if c.AI.Timeout <= 0 {
		issues = append(issues, Issue{
			Key:      "ai.timeout",
			Severity: "warning",
			Message:  "model calls have no timeout",
			Fix:      "set ai.timeout, e.g. 120s",
		})
	}

	switch c.Sheets.Backend {
	case BackendGoogle:
		if c.Sheets.CredentialsFile == "" {
			issues = append(issues, Issue{
				Key:      "sheets.credentials_file",
				Severity: "error",
				Message:  "no service account credentials configured",
				Fix:      "export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account.json",
			})
		} else if _, err := os.Stat(c.Sheets.CredentialsFile); err != nil {
			issues = append(issues, Issue{
				Key:      "sheets.credentials_file",
				Severity: "error",
				Message:  fmt.Sprintf("credentials file %s is not readable: %v", c.Sheets.CredentialsFile, err),
				Fix:      "check the path to the service account JSON key",
			})
		}
		if c.Sheets.SpreadsheetID == "" {
			issues = append(issues, Issue{
				Key:      "sheets.spreadsheet_id",
				Severity: "warning",
				Message:  "no spreadsheet id configured; the first spreadsheet shared with the service account will be used",
				Fix:      "export SHEETSENSE_SHEETS_SPREADSHEET_ID=...",
			})
		}
	case BackendXLSX:
		if c.Sheets.WorkbookPath == "" {
			issues = append(issues, Issue{
				Key:      "sheets.workbook_path",
				Severity: "error",
				Message:  "xlsx backend selected but no workbook path configured",
				Fix:      "set sheets.workbook_path to an .xlsx file",
			})
		}
	default:
		issues = append(issues, Issue{
			Key:      "sheets.backend",
			Severity: "error",
			Message:  fmt.Sprintf("unknown spreadsheet backend %q", c.Sheets.Backend),
			Fix:      "use google or xlsx",
		})
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, Issue{
			Key:      "server.port",
			Severity: "error",
			Message:  fmt.Sprintf("invalid port %d", c.Server.Port),
			Fix:      "set server.port or PORT to a value between 1 and 65535",
		})
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		issues = append(issues, Issue{
			Key:      "log.format",
			Severity: "warning",
			Message:  fmt.Sprintf("unknown log format %q, falling back to text", c.Log.Format),
			Fix:      "use text or json",
		})
	}

	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == "error" {
			return true
		}
	}
	return false
}
