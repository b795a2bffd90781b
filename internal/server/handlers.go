package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
)

// ExecuteRequest is the body of POST /execute-command.
type ExecuteRequest struct {
	Command string `json:"command"`
}

// SheetsResponse is the body of GET /sheets.
type SheetsResponse struct {
	Success bool     `json:"success"`
	Sheets  []string `json:"sheets"`
}

// InfoResponse is the body of GET /agent-info.
type InfoResponse struct {
	Success bool       `json:"success"`
	Info    agent.Info `json:"info"`
}

// StageEvent is the data of an SSE "stage" event.
type StageEvent struct {
	Stage agent.Stage `json:"stage"`
}

// exampleCommands are shown by GET /api and the chat page.
var exampleCommands = []string{
	"Put Hello in cell A1",
	"Show me data in A1:E5",
	"Add a new row with John, Doe, Developer",
	"Replace Manager with Director in B2:B20",
	"What sheets are there?",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, command.Fail(
		command.Validationf("", "method %s not allowed", r.Method)))
	return false
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	content, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "chat page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(content)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	info := s.agent.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "SheetSense API",
		"description": "Natural language spreadsheet agent",
		"version":     info.Version,
		"endpoints": map[string]string{
			"POST /execute-command": "execute a single command and return the response envelope",
			"GET /execute-stream":   "execute a command with server-sent progress stages",
			"GET /health":           "spreadsheet connectivity",
			"GET /sheets":           "list the tabs of the active spreadsheet",
			"GET /agent-info":       "supported operations and version",
		},
		"supported_operations": info.SupportedOperations,
		"example_commands":     exampleCommands,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Health(r.Context()))
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, command.Fail(
			command.Validationf("", "invalid request body: %v", err)))
		return
	}
	text := strings.TrimSpace(req.Command)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, command.Fail(command.Validationf("", "command is required")))
		return
	}

	env := s.agent.Execute(r.Context(), text, nil)
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	text := strings.TrimSpace(r.URL.Query().Get("command"))
	if text == "" {
		writeJSON(w, http.StatusBadRequest, command.Fail(command.Validationf("", "command is required")))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, command.Fail(fmt.Errorf("streaming not supported")))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			s.log.Error(fmt.Sprintf("%s - failed to encode %s event", logPrefix, event), "error", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	env := s.agent.Execute(r.Context(), text, func(stage agent.Stage) {
		send("stage", StageEvent{Stage: stage})
	})
	send("result", env)
}

func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	tabs, err := s.agent.Sheets(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, SheetsResponse{Success: true, Sheets: tabs})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{Success: true, Info: s.agent.Info()})
}
