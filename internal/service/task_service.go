package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tasksync/internal/database"
	"tasksync/internal/domain"
	"tasksync/internal/events"
	"tasksync/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TaskService owns the local task table. Every write also appends the
// matching entry to the mutation log inside the same call, so the sync
// backlog can never miss a change.
type TaskService struct {
	db       *database.DB
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewTaskService(db *database.DB, eventBus domain.EventPublisher, logger *zerolog.Logger) *TaskService {
	return &TaskService{
		db:       db,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateTaskInput carries the caller-supplied fields for a new task.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTaskInput carries a partial update; nil fields are left as-is.
type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncStatus:  models.SyncStatusPending,
	}

	if err := s.db.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, task, models.OpCreate); err != nil {
		return nil, err
	}

	s.logger.Info().Str("task_id", task.ID).Msg("task created")
	return task, nil
}

// GetTask serves normal reads: a soft-deleted task is not found, even
// though its row survives for the sync path.
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.db.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Deleted {
		return nil, database.ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.db.ListTasks(ctx)
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	task.UpdatedAt = time.Now().UTC()
	task.SyncStatus = models.SyncStatusPending

	if err := s.db.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, task, models.OpUpdate); err != nil {
		return nil, err
	}

	s.logger.Info().Str("task_id", task.ID).Msg("task updated")
	return task, nil
}

// DeleteTask soft-deletes: the row survives so the delete can propagate
// to the remote before any cleanup.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.db.MarkTaskDeleted(ctx, id, now); err != nil {
		return err
	}
	task.Deleted = true
	task.UpdatedAt = now

	if err := s.enqueue(ctx, task, models.OpDelete); err != nil {
		return err
	}

	s.logger.Info().Str("task_id", id).Msg("task deleted")
	return nil
}

func (s *TaskService) enqueue(ctx context.Context, task *models.Task, operation string) error {
	entry := &models.MutationEntry{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		Operation: operation,
		Snapshot:  task.Snapshot(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.EnqueueMutation(ctx, entry); err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventMutationEnqueued, events.MutationEventPayload{
			EntryID:   entry.ID,
			TaskID:    task.ID,
			Operation: operation,
		}); err != nil {
			s.logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("publish mutation event")
		}
	}
	return nil
}
