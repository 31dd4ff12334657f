package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hession/boxmate/internal/logger"
	"github.com/hession/boxmate/internal/store"
	"github.com/hession/boxmate/internal/tools"
)

// Server exposes the inventory tools over HTTP for LLM frontends.
type Server struct {
	addr     string
	apiKey   string
	registry *tools.Registry
	store    store.Store
}

// New constructs a tool server.
// An empty apiKey leaves the API open, which is only sane on localhost.
func New(addr, apiKey string, registry *tools.Registry, st store.Store) *Server {
	return &Server{
		addr:     addr,
		apiKey:   apiKey,
		registry: registry,
		store:    st,
	}
}

// Start runs the HTTP server until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tool server listening on %s", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/tools", s.withAuth(s.handleListTools))
	mux.HandleFunc("/api/v1/tools/call", s.withAuth(s.handleCallTool))
	mux.HandleFunc("/api/v1/audit", s.withAuth(s.handleAudit))
	return mux
}

// withAuth checks the bearer API key. No key configured means no auth.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			got := r.Header.Get("Authorization")
			want := "Bearer " + s.apiKey
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// toolInfo is the wire representation of one registered tool.
type toolInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  []tools.ParameterDef `json:"parameters"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}

	list := s.registry.List()
	infos := make([]toolInfo, 0, len(list))
	for _, tool := range list {
		infos = append(infos, toolInfo{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"tools": infos})
}

// callRequest is a tool invocation from an LLM frontend.
type callRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// callResponse carries the tool result or error text.
type callResponse struct {
	Tool   string `json:"tool"`
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "tool name is required")
		return
	}
	if _, exists := s.registry.Get(req.Tool); !exists {
		writeError(w, http.StatusNotFound, "unknown tool: "+req.Tool)
		return
	}

	result, err := s.registry.Execute(req.Tool, req.Args)
	resp := callResponse{Tool: req.Tool, OK: err == nil, Result: result}
	if err != nil {
		logger.Warn("tool %s failed: %v", req.Tool, err)
		resp.Error = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "audit log not available")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := s.store.RecentToolCalls(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"calls": records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
