// package service implements business logic for the application
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cirocosta/todo-service-go/internal/model"
	"github.com/cirocosta/todo-service-go/internal/repository"
)

// ErrInvalidText is returned when todo text is empty or too long after trimming
var ErrInvalidText = errors.New("text must be between 1 and 500 characters")

// Storage hands out the active backend and reports its health
type Storage interface {
	Repository(ctx context.Context) (repository.TodoRepository, error)
	Health(ctx context.Context) model.Health
}

// TodoService handles business logic for todo operations
type TodoService struct {
	storage Storage
	now     func() time.Time
}

// Option customizes a TodoService
type Option func(*TodoService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) {
		s.now = now
	}
}

// NewTodoService creates a new todo service on top of the given storage
func NewTodoService(storage Storage, opts ...Option) *TodoService {
	s := &TodoService{
		storage: storage,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListTodos returns all todos, newest first
func (s *TodoService) ListTodos(ctx context.Context) ([]model.Todo, error) {
	repo, err := s.storage.Repository(ctx)
	if err != nil {
		return nil, err
	}

	return repo.FindAll(ctx)
}

// GetTodo returns a todo by ID
func (s *TodoService) GetTodo(ctx context.Context, id string) (model.Todo, error) {
	repo, err := s.storage.Repository(ctx)
	if err != nil {
		return model.Todo{}, err
	}

	return repo.FindByID(ctx, id)
}

// CreateTodo creates a new, not yet completed todo
func (s *TodoService) CreateTodo(ctx context.Context, req model.CreateTodoRequest) (model.Todo, error) {
	text, err := normalizeText(req.Text)
	if err != nil {
		return model.Todo{}, err
	}

	repo, err := s.storage.Repository(ctx)
	if err != nil {
		return model.Todo{}, err
	}

	now := s.timestamp()
	todo := model.Todo{
		ID:        uuid.NewString(),
		Text:      text,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return repo.Create(ctx, todo)
}

// UpdateTodo applies the supplied fields to an existing todo. Fields left
// nil keep their current value.
func (s *TodoService) UpdateTodo(ctx context.Context, id string, req model.UpdateTodoRequest) (model.Todo, error) {
	var text string
	if req.Text != nil {
		var err error
		if text, err = normalizeText(*req.Text); err != nil {
			return model.Todo{}, err
		}
	}

	repo, err := s.storage.Repository(ctx)
	if err != nil {
		return model.Todo{}, err
	}

	existing, err := repo.FindByID(ctx, id)
	if err != nil {
		return model.Todo{}, err
	}

	if req.Text != nil {
		existing.Text = text
	}
	if req.Completed != nil {
		existing.Completed = *req.Completed
	}

	existing.UpdatedAt = s.nextUpdatedAt(existing.UpdatedAt)

	return repo.Update(ctx, id, existing)
}

// ReplaceTodo overwrites both mutable fields of an existing todo
func (s *TodoService) ReplaceTodo(ctx context.Context, id string, req model.ReplaceTodoRequest) (model.Todo, error) {
	return s.UpdateTodo(ctx, id, model.UpdateTodoRequest{
		Text:      &req.Text,
		Completed: &req.Completed,
	})
}

// DeleteTodo deletes a todo, reporting whether it existed
func (s *TodoService) DeleteTodo(ctx context.Context, id string) (bool, error) {
	repo, err := s.storage.Repository(ctx)
	if err != nil {
		return false, err
	}

	return repo.Delete(ctx, id)
}

// ClearTodos removes every todo
func (s *TodoService) ClearTodos(ctx context.Context) error {
	repo, err := s.storage.Repository(ctx)
	if err != nil {
		return err
	}

	if err := repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear todos: %w", err)
	}

	return nil
}

// Health reports the state of the active storage backend
func (s *TodoService) Health(ctx context.Context) model.Health {
	return s.storage.Health(ctx)
}

// timestamp returns the current time at the precision every backend stores
func (s *TodoService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt never returns a value at or before previous
func (s *TodoService) nextUpdatedAt(previous time.Time) time.Time {
	now := s.timestamp()
	if !now.After(previous) {
		now = previous.Add(time.Microsecond)
	}
	return now
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)

	n := utf8.RuneCountInString(text)
	if n == 0 || n > model.MaxTextLength {
		return "", ErrInvalidText
	}

	return text, nil
}
