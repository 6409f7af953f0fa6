package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/cirocosta/todo-service-go/internal/model"
)

// fileDocument is the on-disk layout of the file backend
type fileDocument struct {
	Todos []model.Todo `json:"todos"`
}

// FileTodoRepository stores todos in a single JSON document. Every call
// re-reads the file; every mutation rewrites it whole.
type FileTodoRepository struct {
	path  string
	mutex sync.Mutex
}

// NewFileTodoRepository creates the data directory and an empty document at
// path if they do not exist yet
func NewFileTodoRepository(path string) (*FileTodoRepository, error) {
	if path == "" {
		return nil, errors.New("data file path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	repo := &FileTodoRepository{path: path}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		return repo, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("stat data file: %w", err)
	}

	if err := repo.save(nil); err != nil {
		return nil, err
	}

	return repo, nil
}

// Path returns the location of the JSON document
func (r *FileTodoRepository) Path() string {
	return r.path
}

// FindAll returns all todos
func (r *FileTodoRepository) FindAll(ctx context.Context) ([]model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	todos, err := r.load()
	if err != nil {
		return nil, err
	}

	return sortNewestFirst(todos), nil
}

// FindByID returns a specific todo by ID
func (r *FileTodoRepository) FindByID(ctx context.Context, id string) (model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	todos, err := r.load()
	if err != nil {
		return model.Todo{}, err
	}

	idx := indexOfTodo(todos, id)
	if idx < 0 {
		return model.Todo{}, ErrTodoNotFound{ID: id}
	}

	return todos[idx], nil
}

// Create adds a new todo
func (r *FileTodoRepository) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	todos, err := r.load()
	if err != nil {
		return model.Todo{}, err
	}

	if err := r.save(append(todos, todo)); err != nil {
		return model.Todo{}, err
	}

	return todo, nil
}

// Update modifies an existing todo
func (r *FileTodoRepository) Update(ctx context.Context, id string, todo model.Todo) (model.Todo, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	todos, err := r.load()
	if err != nil {
		return model.Todo{}, err
	}

	idx := indexOfTodo(todos, id)
	if idx < 0 {
		return model.Todo{}, ErrTodoNotFound{ID: id}
	}

	todo.ID = todos[idx].ID
	todos[idx] = todo

	if err := r.save(todos); err != nil {
		return model.Todo{}, err
	}

	return todo, nil
}

// Delete removes a todo. The file is left untouched when nothing matches.
func (r *FileTodoRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	todos, err := r.load()
	if err != nil {
		return false, err
	}

	idx := indexOfTodo(todos, id)
	if idx < 0 {
		return false, nil
	}

	if err := r.save(slices.Delete(todos, idx, idx+1)); err != nil {
		return false, err
	}

	return true, nil
}

// DeleteAll removes every todo
func (r *FileTodoRepository) DeleteAll(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.save(nil)
}

// Ping checks the document is readable and well formed
func (r *FileTodoRepository) Ping(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, err := r.load()
	return err
}

// Kind implements TodoRepository
func (r *FileTodoRepository) Kind() Kind {
	return KindFile
}

// Close implements TodoRepository
func (r *FileTodoRepository) Close() error {
	return nil
}

func (r *FileTodoRepository) load() ([]model.Todo, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	if doc.Todos == nil {
		doc.Todos = []model.Todo{}
	}

	return doc.Todos, nil
}

// save writes to a temporary file first so readers never see a partial document
func (r *FileTodoRepository) save(todos []model.Todo) error {
	if todos == nil {
		todos = []model.Todo{}
	}

	b, err := json.MarshalIndent(fileDocument{Todos: todos}, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	return nil
}

// indexOfTodo matches ids case-insensitively, as postgres compares uuids by value
func indexOfTodo(todos []model.Todo, id string) int {
	return slices.IndexFunc(todos, func(t model.Todo) bool {
		return strings.EqualFold(t.ID, id)
	})
}
