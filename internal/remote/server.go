package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tasksync/internal/checksum"
	"tasksync/internal/models"

	"github.com/rs/zerolog"
)

// Server is the remote authority's HTTP surface: batch ingestion plus a
// liveness probe the local nodes use for connectivity checks.
type Server struct {
	resolver *Resolver
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(port int, resolver *Resolver, logger *zerolog.Logger) *Server {
	srv := &Server{resolver: resolver, logger: logger}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/batch", s.handleBatch)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("remote authority listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleBatch validates the request envelope before any item touches the
// store: malformed or tampered batches are rejected whole, never partially
// applied.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	if req.ClientTimestamp.IsZero() {
		writeError(w, http.StatusBadRequest, "client_timestamp is required")
		return
	}

	if req.Checksum != "" {
		ok, err := checksum.Verify(req.Items, req.Checksum)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to verify checksum")
			return
		}
		if !ok {
			s.logger.Warn().Int("items", len(req.Items)).Msg("batch checksum mismatch")
			writeError(w, http.StatusBadRequest, "checksum mismatch")
			return
		}
	}

	processed := s.resolver.Process(r.Context(), req.Items)
	writeJSON(w, http.StatusOK, models.BatchResponse{ProcessedItems: processed})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
