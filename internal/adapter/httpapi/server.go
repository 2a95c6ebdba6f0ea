// Package httpapi serves the bridge to the editor webview and to HTTP tool
// clients.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/gorilla/websocket"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/domain/entity"
	"webchat-bridge/internal/infrastructure/config"
	"webchat-bridge/internal/infrastructure/editor/workspace"
)

// Bridge is what the HTTP surface calls into.
type Bridge interface {
	Tools() []entity.ToolDescriptor
	Invoke(ctx context.Context, name entity.ToolName, params entity.Params) (string, error)
}

type Options struct {
	// Token enables bearer authentication on /mcp and /ws. Empty leaves them
	// open.
	Token           string
	UI              config.UIConfig
	// HistoryCapacity bounds the conversation kept per WebSocket connection.
	HistoryCapacity int
	// RequestLog turns on httplog request logging.
	RequestLog      bool
}

type Server struct {
	opts     Options
	bridge   Bridge
	logger   output.LoggerPort
	router   *chi.Mux
	upgrader websocket.Upgrader
}

func New(bridge Bridge, opts Options, logger output.LoggerPort) *Server {
	s := &Server{
		opts:   opts,
		bridge: bridge,
		logger: logger.WithField("component", "http"),
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// the webview origin is vscode-webview://...
				return true
			},
		},
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	if opts.RequestLog {
		s.router.Use(httplog.RequestLogger(httplog.NewLogger("webchat-bridge", httplog.Options{
			JSON:    true,
			Concise: true,
		})))
	}
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/config", s.handleConfig)

	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/tools", s.handleListTools)
		r.Post("/call", s.handleCall)
	})
	s.router.With(s.auth).Get("/ws/chat", s.handleChat)

	return s
}

// Router exposes the root HTTP handler.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.UI)
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": s.bridge.Tools()})
}

// CallRequest is the body of POST /mcp/call. Document, when set, becomes
// the active editor document for the call.
type CallRequest struct {
	Name     string         `json:"name"`
	Args     entity.Params  `json:"arguments"`
	Document *DocumentInput `json:"document,omitempty"`
}

type DocumentInput struct {
	Path      string `json:"path"`
	Text      string `json:"text"`
	Language  string `json:"languageId,omitempty"`
	Selection string `json:"selection,omitempty"`
}

type CallResponse struct {
	Result string `json:"result"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx := r.Context()
	if req.Document != nil {
		doc := workspace.NewDocument(req.Document.Path, req.Document.Text)
		if req.Document.Language != "" {
			doc.LanguageID = req.Document.Language
		}
		doc.Selection = req.Document.Selection
		ctx = workspace.WithDocument(ctx, doc)
	}

	result, err := s.bridge.Invoke(ctx, entity.ToolName(req.Name), req.Args)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("Tool call failed", "tool", req.Name, "error", err.Error())
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CallResponse{Result: result})
}

// statusFor maps invocation errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrToolNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotRunning):
		return http.StatusServiceUnavailable
	case entity.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
