// package repository provides data access interfaces and implementations
package repository

import (
	"context"
	"sort"

	"github.com/cirocosta/todo-service-go/internal/model"
)

// Kind names a storage backend
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindFile     Kind = "file"
	KindMemory   Kind = "memory"
)

// TodoRepository defines the interface every storage backend implements
type TodoRepository interface {
	// FindAll returns all todos, newest first
	FindAll(ctx context.Context) ([]model.Todo, error)

	// FindByID returns a specific todo by ID
	FindByID(ctx context.Context, id string) (model.Todo, error)

	// Create adds a new todo
	Create(ctx context.Context, todo model.Todo) (model.Todo, error)

	// Update modifies an existing todo
	Update(ctx context.Context, id string, todo model.Todo) (model.Todo, error)

	// Delete removes a todo and reports whether it existed
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteAll removes every todo
	DeleteAll(ctx context.Context) error

	// Ping checks that the backend can serve requests
	Ping(ctx context.Context) error

	// Kind identifies the backend
	Kind() Kind

	// Close releases resources held by the backend
	Close() error
}

// sortNewestFirst orders todos by creation time, newest first. The input is
// expected in insertion order; ties keep the most recently inserted first.
func sortNewestFirst(todos []model.Todo) []model.Todo {
	out := make([]model.Todo, len(todos))
	for i, todo := range todos {
		out[len(todos)-1-i] = todo
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}
