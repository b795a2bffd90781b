// Package interpret turns free-text chat commands into validated intents by
// asking a language model.
package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klytics/sheetsense/internal/ai"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/logging"
)

const logPrefix = "interpret:interpret"

// Interpreter produces exactly one intent for a command, or fails.
type Interpreter interface {
	Interpret(ctx context.Context, text string, sheetNames []string) (command.Intent, error)
}

// ModelInterpreter interprets commands with a single language-model call.
type ModelInterpreter struct {
	provider     ai.Provider
	defaultSheet string
	log          *slog.Logger
}

var _ Interpreter = (*ModelInterpreter)(nil)

// New creates a ModelInterpreter over provider.
func New(provider ai.Provider, defaultSheet string, log *slog.Logger) *ModelInterpreter {
	if log == nil {
		log = logging.Nop()
	}
	return &ModelInterpreter{provider: provider, defaultSheet: defaultSheet, log: log}
}

// Interpret sends text to the model once and validates the reply. Model output is
// never retried; an unusable reply is an interpretation error.
func (m *ModelInterpreter) Interpret(ctx context.Context, text string, sheetNames []string) (command.Intent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return command.Intent{}, &command.Error{Kind: command.KindValidation, Msg: "command text is empty"}
	}

	system := BuildPrompt(sheetNames, m.defaultSheet)
	start := time.Now()
	res, err := m.provider.Infer(ctx, system, []ai.Message{{Role: "user", Content: text}}, ai.InferOptions{
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		m.log.Warn(fmt.Sprintf("%s - model call failed", logPrefix), "provider", m.provider.Name(), "error", err)
		return command.Intent{}, command.Interpretationf(err, "language model call failed")
	}
	m.log.Debug(fmt.Sprintf("%s - model replied", logPrefix),
		"provider", m.provider.Name(),
		"model", res.Model,
		"duration", time.Since(start),
		"output_tokens", res.OutputTokens,
	)

	return ParseResponse(res.Content)
}

type modelReply struct {
	Operation string         `json:"operation"`
	Function  string         `json:"function"`
	Params    map[string]any `json:"params"`
	Error     *string        `json:"error"`
}

// ParseResponse decodes a model reply into a validated intent.
func ParseResponse(raw string) (command.Intent, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return command.Intent{}, command.Interpretationf(nil, "could not understand the model response: %v", err)
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return command.Intent{}, command.Interpretationf(err, "model response is not valid JSON")
	}

	if reply.Error != nil {
		msg := strings.TrimSpace(*reply.Error)
		if msg == "" {
			msg = "the model could not interpret the request"
		}
		return command.Intent{}, command.Interpretationf(nil, "%s", msg)
	}

	op := reply.Operation
	if op == "" {
		op = reply.Function
	}
	if strings.TrimSpace(op) == "" {
		return command.Intent{}, command.Interpretationf(nil, "model response names no operation")
	}

	in, err := command.NewIntent(op, reply.Params)
	if err != nil {
		var cmdErr *command.Error
		if errors.As(err, &cmdErr) {
			return command.Intent{}, cmdErr
		}
		return command.Intent{}, command.Interpretationf(err, "invalid intent")
	}
	return in, nil
}

// extractJSON strips Markdown code fences and returns the outermost JSON object.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("empty response")
	}
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", errors.New("no JSON object found")
	}
	return s[start : end+1], nil
}
