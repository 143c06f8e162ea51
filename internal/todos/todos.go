// Package todos holds the todo operations. Every call is scoped by the
// owner id taken from the authenticated account; a todo owned by someone
// else is reported exactly like a missing one.
package todos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/models"
	"todo_api/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("todo not found")
	ErrEmptyText = errors.New("todo text is empty")
)

type Storage interface {
	SaveTodo(ctx context.Context, ownerID, text string) (models.Todo, error)
	Todos(ctx context.Context, ownerID string) ([]models.Todo, error)
	Todo(ctx context.Context, id, ownerID string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id, ownerID string, patch models.TodoPatch) (models.Todo, error)
	DeleteTodo(ctx context.Context, id, ownerID string) (models.Todo, error)
}

// Patch is what a client sent. Completed == nil means the field was omitted.
type Patch struct {
	Text      *string
	Completed *bool
}

type Service struct {
	log     *slog.Logger
	storage Storage
	now     func() time.Time
}

func New(log *slog.Logger, storage Storage) *Service {
	return &Service{
		log:     log,
		storage: storage,
		now:     time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerID, text string) (models.Todo, error) {
	const op = "todos.Create"

	text = strings.TrimSpace(text)
	if text == "" {
		return models.Todo{}, fmt.Errorf("%s: %w", op, ErrEmptyText)
	}

	todo, err := s.storage.SaveTodo(ctx, ownerID, text)
	if err != nil {
		s.log.Error("failed to save todo", slog.String("op", op), sl.Err(err))
		return models.Todo{}, fmt.Errorf("%s: %w", op, err)
	}

	return todo, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]models.Todo, error) {
	const op = "todos.List"

	todos, err := s.storage.Todos(ctx, ownerID)
	if err != nil {
		s.log.Error("failed to list todos", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return todos, nil
}

func (s *Service) Get(ctx context.Context, id, ownerID string) (models.Todo, error) {
	const op = "todos.Get"

	if !validID(id) {
		return models.Todo{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	todo, err := s.storage.Todo(ctx, id, ownerID)
	if err != nil {
		return models.Todo{}, s.wrap(op, err)
	}

	return todo, nil
}

// Update applies the completion rule: completed=true stamps CompletedAt with
// the current time, anything else (false or omitted) clears both fields.
func (s *Service) Update(ctx context.Context, id, ownerID string, p Patch) (models.Todo, error) {
	const op = "todos.Update"

	if !validID(id) {
		return models.Todo{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var patch models.TodoPatch

	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return models.Todo{}, fmt.Errorf("%s: %w", op, ErrEmptyText)
		}
		patch.Text = &text
	}

	if p.Completed != nil && *p.Completed {
		now := s.now()
		patch.Completed = true
		patch.CompletedAt = &now
	}

	todo, err := s.storage.UpdateTodo(ctx, id, ownerID, patch)
	if err != nil {
		return models.Todo{}, s.wrap(op, err)
	}

	return todo, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID string) (models.Todo, error) {
	const op = "todos.Delete"

	if !validID(id) {
		return models.Todo{}, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	todo, err := s.storage.DeleteTodo(ctx, id, ownerID)
	if err != nil {
		return models.Todo{}, s.wrap(op, err)
	}

	return todo, nil
}

func (s *Service) wrap(op string, err error) error {
	if errors.Is(err, storage.ErrTodoNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	s.log.Error("todo storage failure", slog.String("op", op), sl.Err(err))

	return fmt.Errorf("%s: %w", op, err)
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}
