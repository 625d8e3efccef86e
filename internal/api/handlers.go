package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tasksync/internal/database"
	"tasksync/internal/export"
	"tasksync/internal/models"
	"tasksync/internal/service"
)

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tasks, err := s.tasks.ListTasks(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list tasks")
			return
		}
		if tasks == nil {
			tasks = []models.Task{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})

	case http.MethodPost:
		var input service.CreateTaskInput
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := s.tasks.CreateTask(r.Context(), input)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, task)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := s.tasks.GetTask(r.Context(), id)
		if err != nil {
			s.writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)

	case http.MethodPut:
		var input service.UpdateTaskInput
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task, err := s.tasks.UpdateTask(r.Context(), id, input)
		if err != nil {
			s.writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)

	case http.MethodDelete:
		if err := s.tasks.DeleteTask(r.Context(), id); err != nil {
			s.writeTaskError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) writeTaskError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if strings.Contains(err.Error(), "required") {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// handleSync runs one cycle on demand. An unreachable remote is reported
// as 503 so callers can tell "offline" apart from a failed cycle.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.prober.IsReachable(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     "remote unreachable",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	result := s.runner.RunCycle(r.Context())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()

	pending, err := s.db.CountPendingMutations(ctx, s.cfg.Sync.MaxRetries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count pending mutations")
		return
	}
	queueSize, err := s.db.CountMutations(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count queue")
		return
	}

	report := models.StatusReport{
		PendingSyncCount: pending,
		SyncQueueSize:    queueSize,
		IsOnline:         s.prober.IsReachable(ctx),
	}
	if state, err := s.state.GetState(ctx); err == nil && state != nil {
		report.LastSyncTimestamp = state.LastSyncAt
	}

	writeJSON(w, http.StatusOK, report)
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

func (s *Server) handleDeadLetterQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := s.db.GetDeadLetters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read dead-letter queue")
		return
	}
	if entries == nil {
		entries = []models.DeadLetterEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(entries),
		"items": entries,
	})
}

func (s *Server) handleDeadLetterExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := s.db.GetDeadLetters(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read dead-letter queue")
		return
	}

	fileName := "dead_letters_" + time.Now().UTC().Format("2006-01-02_15-04-05") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	if err := export.WriteDeadLetterReport(w, entries); err != nil {
		s.logger.Error().Err(err).Msg("write dead-letter report")
	}
}
