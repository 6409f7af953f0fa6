package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/cirocosta/todo-service-go/internal/model"
)

// InMemoryTodoRepository implements TodoRepository with a process-local list.
// Nothing survives a restart.
type InMemoryTodoRepository struct {
	todos []model.Todo
	mutex sync.RWMutex
}

// NewInMemoryTodoRepository creates a new, empty in-memory todo repository
func NewInMemoryTodoRepository() *InMemoryTodoRepository {
	return &InMemoryTodoRepository{
		todos: []model.Todo{},
	}
}

// FindAll returns all todos
func (r *InMemoryTodoRepository) FindAll(ctx context.Context) ([]model.Todo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return sortNewestFirst(r.todos), nil
}

// FindByID returns a specific todo by ID
func (r *InMemoryTodoRepository) FindByID(ctx context.Context, id string) (model.Todo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	idx := indexOfTodo(r.todos, id)
	if idx < 0 {
		return model.Todo{}, ErrTodoNotFound{ID: id}
	}

	return r.todos[idx], nil
}

// Create adds a new todo
func (r *InMemoryTodoRepository) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.todos = append(r.todos, todo)
	return todo, nil
}

// Update modifies an existing todo
func (r *InMemoryTodoRepository) Update(ctx context.Context, id string, todo model.Todo) (model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	idx := indexOfTodo(r.todos, id)
	if idx < 0 {
		return model.Todo{}, ErrTodoNotFound{ID: id}
	}

	// ensure ID doesn't change
	todo.ID = r.todos[idx].ID
	r.todos[idx] = todo

	return todo, nil
}

// Delete removes a todo
func (r *InMemoryTodoRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	idx := indexOfTodo(r.todos, id)
	if idx < 0 {
		return false, nil
	}

	r.todos = slices.Delete(r.todos, idx, idx+1)
	return true, nil
}

// DeleteAll removes every todo
func (r *InMemoryTodoRepository) DeleteAll(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.todos = []model.Todo{}
	return nil
}

// Ping always succeeds
func (r *InMemoryTodoRepository) Ping(ctx context.Context) error {
	return nil
}

// Kind implements TodoRepository
func (r *InMemoryTodoRepository) Kind() Kind {
	return KindMemory
}

// Close implements TodoRepository
func (r *InMemoryTodoRepository) Close() error {
	return nil
}
