// Package ai provides a unified interface to multiple AI inference providers.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klytics/sheetsense/internal/config"
)

// Provider failures that callers distinguish with errors.Is.
var (
	ErrUnauthorized = errors.New("model provider rejected the credentials")
	ErrRateLimited  = errors.New("model provider rate limited the request")
	ErrUnavailable  = errors.New("model provider unavailable")
)

// Message represents a single message in a conversation with an AI model.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// InferOptions configures a single inference call.
type InferOptions struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// InferResult holds the response from an inference call.
type InferResult struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"inputTokens,omitempty"`
	OutputTokens int    `json:"outputTokens,omitempty"`
}

// Provider defines the interface that all AI backends must implement.
// Every Infer call is a single request; providers never retry.
type Provider interface {
	// Infer sends a prompt and returns the complete response.
	Infer(ctx context.Context, system string, messages []Message, opts InferOptions) (*InferResult, error)

	// Name returns the provider identifier.
	Name() string
}

// Option customizes a provider's HTTP behavior.
type Option func(*httpOptions)

type httpOptions struct {
	baseURL string
	timeout time.Duration
}

// WithBaseURL points the provider at a different API root.
func WithBaseURL(u string) Option {
	return func(o *httpOptions) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout for model calls.
func WithTimeout(d time.Duration) Option {
	return func(o *httpOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func buildOptions(baseURL string, opts []Option) httpOptions {
	o := httpOptions{baseURL: baseURL, timeout: 120 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewProvider creates a provider instance from the AI configuration.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	opts := []Option{WithBaseURL(cfg.BaseURL), WithTimeout(cfg.Timeout)}
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set (get a key at https://aistudio.google.com/apikey)")
		}
		return NewGeminiProvider(cfg.APIKey, cfg.Model, opts...), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set (get a key at https://console.anthropic.com/settings/keys)")
		}
		return NewAnthropicProvider(cfg.APIKey, cfg.Model, opts...), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, opts...), nil
	case "ollama":
		host := cfg.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, cfg.Model, opts...), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q (supported providers: gemini, anthropic, openai, ollama)", cfg.Provider)
	}
}

// checkStatus maps non-2xx responses onto the package sentinel errors.
func checkStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w (HTTP %d)", provider, ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w (HTTP %d)", provider, ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%s returned status %d: %s", provider, resp.StatusCode, detail)
	}
}
