package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cirocosta/todo-service-go/internal/model"
	"github.com/cirocosta/todo-service-go/internal/repository"
	"github.com/cirocosta/todo-service-go/internal/service"
	"github.com/cirocosta/todo-service-go/internal/validation"
)

// maxBodyBytes bounds request bodies; a todo is at most a few KiB of JSON
const maxBodyBytes = 64 << 10

// TodoHandler handles HTTP requests for todo operations
type TodoHandler struct {
	todoService TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a new todo handler with the given service
func NewTodoHandler(todoService TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		logger:      logger,
	}
}

// ListTodos handles GET /todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todoService.ListTodos(r.Context())
	if err != nil {
		h.fail(w, r, "list todos", err)
		return
	}

	if todos == nil {
		todos = []model.Todo{}
	}

	writeJSON(w, todos, http.StatusOK)
}

// GetTodo handles GET /todos/{id}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get todo", err)
		return
	}

	todo, err := h.todoService.GetTodo(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get todo", err)
		return
	}

	writeJSON(w, todo, http.StatusOK)
}

// CreateTodo handles POST /todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := validation.ValidateCreate(body)
	if err != nil {
		h.fail(w, r, "create todo", err)
		return
	}

	todo, err := h.todoService.CreateTodo(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create todo", err)
		return
	}

	writeJSON(w, todo, http.StatusCreated)
}

// UpdateTodo handles PATCH /todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "update todo", err)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := validation.ValidateUpdate(body)
	if err != nil {
		h.fail(w, r, "update todo", err)
		return
	}

	todo, err := h.todoService.UpdateTodo(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "update todo", err)
		return
	}

	writeJSON(w, todo, http.StatusOK)
}

// ReplaceTodo handles PUT /todos/{id}
func (h *TodoHandler) ReplaceTodo(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "replace todo", err)
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req, err := validation.ValidateReplace(body)
	if err != nil {
		h.fail(w, r, "replace todo", err)
		return
	}

	todo, err := h.todoService.ReplaceTodo(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "replace todo", err)
		return
	}

	writeJSON(w, todo, http.StatusOK)
}

// DeleteTodo handles DELETE /todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidateID(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "delete todo", err)
		return
	}

	deleted, err := h.todoService.DeleteTodo(r.Context(), id)
	if err != nil {
		h.fail(w, r, "delete todo", err)
		return
	}

	if !deleted {
		writeError(w, "todo not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearTodos handles DELETE /todos
func (h *TodoHandler) ClearTodos(w http.ResponseWriter, r *http.Request) {
	if err := h.todoService.ClearTodos(r.Context()); err != nil {
		h.fail(w, r, "clear todos", err)
		return
	}

	writeJSON(w, model.StatusResponse{
		Status:  "success",
		Message: "All todos cleared successfully",
	}, http.StatusOK)
}

// fail maps err to a status code. Only unexpected errors are logged; their
// details never reach the client.
func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *validation.Error

	switch {
	case errors.As(err, &verr):
		writeJSON(w, model.ErrorResponse{Error: "validation failed", Errors: verr.Fields}, http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidText):
		writeError(w, err.Error(), http.StatusBadRequest)
	case repository.IsNotFound(err):
		writeError(w, "todo not found", http.StatusNotFound)
	default:
		h.logger.Error(op+" failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

// readBody reads a bounded request body, answering 400 itself on failure
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		writeError(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}

	return body, true
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
	}
}

// writeError writes an error response with the given status code
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, model.ErrorResponse{Error: message}, statusCode)
}
