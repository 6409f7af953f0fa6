package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cirocosta/todo-service-go/internal/model"
)

// mockTodoService is a mock implementation of TodoService
type mockTodoService struct {
	mock.Mock
}

func (m *mockTodoService) ListTodos(ctx context.Context) ([]model.Todo, error) {
	args := m.Called(ctx)
	todos, _ := args.Get(0).([]model.Todo)
	return todos, args.Error(1)
}

func (m *mockTodoService) GetTodo(ctx context.Context, id string) (model.Todo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) CreateTodo(ctx context.Context, req model.CreateTodoRequest) (model.Todo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) UpdateTodo(ctx context.Context, id string, req model.UpdateTodoRequest) (model.Todo, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) ReplaceTodo(ctx context.Context, id string, req model.ReplaceTodoRequest) (model.Todo, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *mockTodoService) DeleteTodo(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTodoService) ClearTodos(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockTodoService) Health(ctx context.Context) model.Health {
	args := m.Called(ctx)
	return args.Get(0).(model.Health)
}
