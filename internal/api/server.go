package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tasksync/internal/config"
	"tasksync/internal/database"
	"tasksync/internal/domain"
	"tasksync/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the local node's HTTP API: task CRUD, on-demand sync,
// status and dead-letter inspection.
type Server struct {
	cfg    *config.Config
	tasks  *service.TaskService
	db     *database.DB
	runner domain.SyncRunner
	prober domain.ConnectivityProber
	state  domain.StateRepository
	logger *zerolog.Logger
	server *http.Server
}

func NewServer(
	cfg *config.Config,
	tasks *service.TaskService,
	db *database.DB,
	runner domain.SyncRunner,
	prober domain.ConnectivityProber,
	state domain.StateRepository,
	logger *zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:    cfg,
		tasks:  tasks,
		db:     db,
		runner: runner,
		prober: prober,
		state:  state,
		logger: logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return srv
}

// Handler builds the routed handler with the middleware chain applied.
// Exposed separately so tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tasks", s.handleTasks)
	mux.HandleFunc("/api/v1/tasks/", s.handleTaskByID)
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/dead-letter-queue", s.handleDeadLetterQueue)
	mux.HandleFunc("/dead-letter-queue/export", s.handleDeadLetterExport)

	limiter := newRateLimiter(s.cfg.RateLimit)
	return recoverMiddleware(s.logger, loggingMiddleware(s.logger, limiter.Wrap(mux)))
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
