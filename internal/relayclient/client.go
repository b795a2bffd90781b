// Package relayclient talks to a running SheetSense relay over HTTP.
package relayclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
)

// Client calls the relay routes. Every call is a single request; nothing is retried.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a relay client for baseURL (e.g. http://localhost:5000).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Execute runs a command on the relay. With a nil onStage it posts to
// /execute-command; otherwise it reads /execute-stream and reports each stage.
// Transport failures come back as connectivity_error envelopes.
func (c *Client) Execute(ctx context.Context, text string, onStage func(agent.Stage)) command.Envelope {
	var (
		env command.Envelope
		err error
	)
	if onStage == nil {
		env, err = c.post(ctx, text)
	} else {
		env, err = c.stream(ctx, text, onStage)
	}
	if err != nil {
		return command.Fail(err)
	}
	return env
}

func (c *Client) post(ctx context.Context, text string) (command.Envelope, error) {
	body, err := json.Marshal(map[string]string{"command": text})
	if err != nil {
		return command.Envelope{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/execute-command", bytes.NewReader(body))
	if err != nil {
		return command.Envelope{}, command.Connectivity(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return command.Envelope{}, command.Connectivity(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return command.Envelope{}, command.Connectivity(err)
	}
	var env command.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return command.Envelope{}, command.Connectivity(
			fmt.Errorf("relay returned %d with an unreadable body: %s", resp.StatusCode, truncate(data)))
	}
	return env, nil
}

func (c *Client) stream(ctx context.Context, text string, onStage func(agent.Stage)) (command.Envelope, error) {
	endpoint := c.BaseURL + "/execute-stream?command=" + url.QueryEscape(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return command.Envelope{}, command.Connectivity(err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return command.Envelope{}, command.Connectivity(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		var env command.Envelope
		if json.Unmarshal(data, &env) == nil && env.Error != "" {
			return env, nil
		}
		return command.Envelope{}, command.Connectivity(fmt.Errorf("relay returned %d: %s", resp.StatusCode, truncate(data)))
	}

	var event string
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "stage":
				var s struct {
					Stage agent.Stage `json:"stage"`
				}
				if err := json.Unmarshal([]byte(data), &s); err == nil {
					onStage(s.Stage)
				}
			case "result":
				var env command.Envelope
				if err := json.Unmarshal([]byte(data), &env); err != nil {
					return command.Envelope{}, command.Connectivity(fmt.Errorf("could not parse result event: %w", err))
				}
				return env, nil
			}
		case line == "":
			event = ""
		}
	}
	if err := sc.Err(); err != nil {
		return command.Envelope{}, command.Connectivity(err)
	}
	return command.Envelope{}, command.Connectivity(fmt.Errorf("stream ended without a result"))
}

// Health returns the relay's health report.
func (c *Client) Health(ctx context.Context) (agent.Health, error) {
	var h agent.Health
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return agent.Health{}, err
	}
	return h, nil
}

// Sheets lists the tabs of the relay's spreadsheet.
func (c *Client) Sheets(ctx context.Context) ([]string, error) {
	var body struct {
		Success bool     `json:"success"`
		Sheets  []string `json:"sheets"`
		Error   string   `json:"error"`
	}
	if err := c.getJSON(ctx, "/sheets", &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, fmt.Errorf("relay could not list sheets: %s", body.Error)
	}
	return body.Sheets, nil
}

// Info returns the relay's supported operations and version.
func (c *Client) Info(ctx context.Context) (agent.Info, error) {
	var body struct {
		Success bool       `json:"success"`
		Info    agent.Info `json:"info"`
	}
	if err := c.getJSON(ctx, "/agent-info", &body); err != nil {
		return agent.Info{}, err
	}
	return body.Info, nil
}

// getJSON decodes the body of any JSON response, including 502 failures, into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return command.Connectivity(err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return command.Connectivity(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return command.Connectivity(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, truncate(data))
	}
	return nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
