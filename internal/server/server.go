// Package server is the HTTP relay between chat front-ends and the agent.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/logging"
)

const logPrefix = "server:server"

//go:embed web/index.html
var webFS embed.FS

// Agent is the part of *agent.Agent the relay depends on.
type Agent interface {
	Execute(ctx context.Context, text string, onStage func(agent.Stage)) command.Envelope
	Health(ctx context.Context) agent.Health
	Sheets(ctx context.Context) ([]string, error)
	Info() agent.Info
}

// Server serves the relay routes. It keeps no per-request state.
type Server struct {
	agent       Agent
	allowOrigin string
	cfg         config.ServerConfig
	log         *slog.Logger
}

// New creates a relay for the given agent.
func New(a Agent, cfg config.ServerConfig, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	origin := cfg.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	return &Server{agent: a, allowOrigin: origin, cfg: cfg, log: log}
}

// Handler returns the relay's routes wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api", s.handleAPI)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/execute-command", s.handleExecute)
	mux.HandleFunc("/execute-stream", s.handleStream)
	mux.HandleFunc("/sheets", s.handleSheets)
	mux.HandleFunc("/agent-info", s.handleInfo)
	return s.logRequests(s.cors(mux))
}

// Serve listens on the configured address until ctx is cancelled, then shuts the
// HTTP server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("%s - failed to listen on %s: %w", logPrefix, s.cfg.Addr(), err)
	}
	return s.serveListener(ctx, ln)
}

func (s *Server) serveListener(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(fmt.Sprintf("%s - relay listening on %s", logPrefix, ln.Addr()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info(fmt.Sprintf("%s - shutting down", logPrefix))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s - shutdown: %w", logPrefix, err)
	}
	s.log.Info(fmt.Sprintf("%s - shutdown complete", logPrefix))
	return nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.allowOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the logging wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug(fmt.Sprintf("%s - %s %s", logPrefix, r.Method, r.URL.Path),
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
