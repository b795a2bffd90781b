// Package config manages application configuration from files and environment.
//
// Configuration is read once at process start into a Config value that is then
// passed by pointer to every constructor that needs it. There is no hot reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names for the spreadsheet client.
const (
	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
)

// Config holds the application configuration.
type Config struct {
	AI     AIConfig     `mapstructure:"ai"`
	Sheets SheetsConfig `mapstructure:"sheets"`
	Server ServerConfig `mapstructure:"server"`
	Events EventsConfig `mapstructure:"events"`
	Log    LogConfig    `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// AIConfig selects the language-model provider used to interpret commands.
type AIConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	OllamaHost string        `mapstructure:"ollama_host"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// SheetsConfig identifies the target spreadsheet and how to reach it.
type SheetsConfig struct {
	Backend         string `mapstructure:"backend"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	WorkbookPath    string `mapstructure:"workbook_path"`
	DefaultSheet    string `mapstructure:"default_sheet"`
	Endpoint        string `mapstructure:"endpoint"`
}

// ServerConfig configures the HTTP relay.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	AllowOrigin  string        `mapstructure:"allow_origin"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the listen address for the relay.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EventsConfig configures command.executed event publishing.
type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// providerKeyEnv maps providers to the API key variable each vendor documents.
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// Load reads the configuration. When path is empty, sheetsense.yaml is looked up in
// the working directory and in ~/.sheetsense; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHEETSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "SHEETSENSE_SERVER_PORT", "PORT")
	_ = v.BindEnv("sheets.credentials_file", "SHEETSENSE_SHEETS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	_ = v.BindEnv("ai.ollama_host", "SHEETSENSE_AI_OLLAMA_HOST", "OLLAMA_HOST")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sheetsense")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.ollama_host", "http://localhost:11434")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", "120s")

	v.SetDefault("sheets.backend", BackendGoogle)
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.credentials_file", "")
	v.SetDefault("sheets.workbook_path", "")
	v.SetDefault("sheets.default_sheet", "")
	v.SetDefault("sheets.endpoint", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.allow_origin", "*")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "180s")

	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject", "sheetsense.command.executed")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func (c *Config) normalize() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.Sheets.Backend = strings.ToLower(strings.TrimSpace(c.Sheets.Backend))
	if c.AI.APIKey == "" {
		if name, ok := providerKeyEnv[c.AI.Provider]; ok {
			c.AI.APIKey = os.Getenv(name)
		}
	}
}

// Dir returns the per-user configuration directory (~/.sheetsense).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetsense"
	}
	return filepath.Join(home, ".sheetsense")
}

// MaskedAPIKey returns the API key with everything past the first few characters hidden.
func (c *Config) MaskedAPIKey() string {
	k := c.AI.APIKey
	if k == "" {
		return ""
	}
	if len(k) <= 6 {
		return "****"
	}
	return k[:6] + "****"
}

// Setting is one effective configuration value.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Settings lists the effective configuration in a fixed order with the API key masked.
func (c *Config) Settings() []Setting {
	return []Setting{
		{"ai.provider", c.AI.Provider},
		{"ai.model", c.AI.Model},
		{"ai.api_key", c.MaskedAPIKey()},
		{"ai.ollama_host", c.AI.OllamaHost},
		{"ai.base_url", c.AI.BaseURL},
		{"ai.timeout", c.AI.Timeout.String()},
		{"sheets.backend", c.Sheets.Backend},
		{"sheets.spreadsheet_id", c.Sheets.SpreadsheetID},
		{"sheets.credentials_file", c.Sheets.CredentialsFile},
		{"sheets.workbook_path", c.Sheets.WorkbookPath},
		{"sheets.default_sheet", c.Sheets.DefaultSheet},
		{"sheets.endpoint", c.Sheets.Endpoint},
		{"server.host", c.Server.Host},
		{"server.port", fmt.Sprint(c.Server.Port)},
		{"server.allow_origin", c.Server.AllowOrigin},
		{"server.read_timeout", c.Server.ReadTimeout.String()},
		{"server.write_timeout", c.Server.WriteTimeout.String()},
		{"events.nats_url", c.Events.NATSURL},
		{"events.subject", c.Events.Subject},
		{"log.level", c.Log.Level},
		{"log.format", c.Log.Format},
	}
}
