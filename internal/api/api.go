// package api provides the HTTP API for the application
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cirocosta/todo-service-go/internal/metrics"
	"github.com/cirocosta/todo-service-go/internal/model"
	"github.com/cirocosta/todo-service-go/pkg/router"
)

const (
	tagTodos  = "Todos"
	tagSystem = "System"

	responseInternalError = "InternalError"
)

// TodoService defines the minimal interface needed by the API
type TodoService interface {
	// ListTodos returns all todos, newest first
	ListTodos(ctx context.Context) ([]model.Todo, error)

	// GetTodo returns a todo by ID
	GetTodo(ctx context.Context, id string) (model.Todo, error)

	// CreateTodo creates a new todo
	CreateTodo(ctx context.Context, req model.CreateTodoRequest) (model.Todo, error)

	// UpdateTodo applies the fields present in req
	UpdateTodo(ctx context.Context, id string, req model.UpdateTodoRequest) (model.Todo, error)

	// ReplaceTodo overwrites text and completed
	ReplaceTodo(ctx context.Context, id string, req model.ReplaceTodoRequest) (model.Todo, error)

	// DeleteTodo deletes a todo and reports whether it existed
	DeleteTodo(ctx context.Context, id string) (bool, error)

	// ClearTodos deletes every todo
	ClearTodos(ctx context.Context) error

	// Health reports the state of the active storage backend
	Health(ctx context.Context) model.Health
}

// Options configures the router built by NewRouter
type Options struct {
	// Logger receives request and error logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, instruments every request and is served on /metrics
	Metrics *metrics.Metrics

	// AllowClear registers DELETE /todos
	AllowClear bool

	// Diagnostics is served on /diag
	Diagnostics model.Diagnostics

	// Frontend, when set, is served on /
	Frontend http.Handler

	// Version is reported in the OpenAPI document
	Version string
}

// API holds the components needed to register routes
type API struct {
	router        *router.DocRouter
	todoHandler   *TodoHandler
	systemHandler *SystemHandler
	opts          Options
}

// NewRouter creates a new router with all routes configured
func NewRouter(todoService TodoService, opts Options) *router.DocRouter {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	r := router.NewDocRouter("Todo API",
		"REST API for a todo list backed by PostgreSQL, a JSON file or memory",
		opts.Version,
	)

	// metrics go first so they observe the pattern the mux matched
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(loggerMiddleware(opts.Logger))
	r.Use(recovererMiddleware(opts.Logger))
	r.Use(corsMiddleware)

	api := &API{
		router:        r,
		todoHandler:   NewTodoHandler(todoService, opts.Logger),
		systemHandler: NewSystemHandler(todoService, opts.Metrics, opts.Diagnostics),
		opts:          opts,
	}

	api.registerRoutes()

	return r
}

// registerRoutes configures all API routes with documentation
func (api *API) registerRoutes() {
	errSchema := &model.ErrorResponse{}

	api.router.WithServer("http://localhost:8080", "Local development server").
		WithTag(tagTodos, "Operations related to todo items").
		WithTag(tagSystem, "Health and diagnostics")

	api.router.RegisterResponse(responseInternalError, "Unexpected storage or server failure", errSchema)

	badID := router.Example{
		ContentType: "application/json",
		Value:       `{"error":"validation failed","errors":[{"field":"id","message":"id must be a valid UUID","code":"invalid_uuid"}]}`,
	}
	notFound := router.Example{
		ContentType: "application/json",
		Value:       `{"error":"todo not found"}`,
	}

	api.router.Route(http.MethodGet, "/todos", api.todoHandler.ListTodos).
		WithName("List Todos").
		WithDescription("Get all todo items, newest first").
		WithResponse([]model.Todo{}).
		WithTags(tagTodos).
		Register()

	api.router.Route(http.MethodPost, "/todos", api.todoHandler.CreateTodo).
		WithName("Create Todo").
		WithDescription("Create a new todo item").
		WithRequest(&model.CreateTodoRequest{}).
		WithResponse(&model.Todo{}).
		WithStatus("201").
		WithErrorResponse("400", "Bad Request", errSchema,
			router.Example{
				ContentType: "application/json",
				Value:       `{"error":"validation failed","errors":[{"field":"text","message":"text must not be empty","code":"too_small"}]}`,
			}).
		WithTags(tagTodos).
		Register()

	api.router.Route(http.MethodGet, "/todos/{id}", api.todoHandler.GetTodo).
		WithName("Get Todo").
		WithDescription("Get a todo item by ID").
		WithResponse(&model.Todo{}).
		WithErrorResponse("400", "Bad Request", errSchema, badID).
		WithErrorResponse("404", "Not Found", errSchema, notFound).
		WithTags(tagTodos).
		Register()

	api.router.Route(http.MethodPut, "/todos/{id}", api.todoHandler.ReplaceTodo).
		WithName("Replace Todo").
		WithDescription("Replace the text and completion of a todo item").
		WithRequest(&model.ReplaceTodoRequest{}).
		WithResponse(&model.Todo{}).
		WithErrorResponse("400", "Bad Request", errSchema, badID).
		WithErrorResponse("404", "Not Found", errSchema, notFound).
		WithTags(tagTodos).
		Register()

	api.router.Route(http.MethodPatch, "/todos/{id}", api.todoHandler.UpdateTodo).
		WithName("Update Todo").
		WithDescription("Update the supplied fields of a todo item").
		WithRequest(&model.UpdateTodoRequest{}).
		WithResponse(&model.Todo{}).
		WithErrorResponse("400", "Bad Request", errSchema,
			router.Example{
				ContentType: "application/json",
				Value:       `{"error":"validation failed","errors":[{"field":"update","message":"at least one of text or completed must be provided","code":"missing_field"}]}`,
			}).
		WithErrorResponse("404", "Not Found", errSchema, notFound).
		WithTags(tagTodos).
		Register()

	api.router.Route(http.MethodDelete, "/todos/{id}", api.todoHandler.DeleteTodo).
		WithName("Delete Todo").
		WithDescription("Delete a todo item").
		WithStatus("204").
		WithErrorResponse("400", "Bad Request", errSchema, badID).
		WithErrorResponse("404", "Not Found", errSchema, notFound).
		WithTags(tagTodos).
		Register()

	if api.opts.AllowClear {
		api.router.Route(http.MethodDelete, "/todos", api.todoHandler.ClearTodos).
			WithName("Clear Todos").
			WithDescription("Delete every todo item. Not available in production.").
			WithResponse(&model.StatusResponse{}).
			WithTags(tagTodos).
			Register()
	}

	for _, route := range api.router.GetRoutes() {
		api.router.RegisterRouteResponse(route.Path, route.Method, "500", responseInternalError)
	}

	api.router.Route(http.MethodGet, "/health", api.systemHandler.Health).
		WithName("Health Check").
		WithDescription("Report the active storage backend. 503 when it is unreachable or a fallback is active.").
		WithResponse(&model.HealthResponse{}).
		WithErrorResponse("503", "Storage degraded", &model.HealthResponse{}).
		WithTags(tagSystem).
		Register()

	api.router.Route(http.MethodGet, "/diag", api.systemHandler.Diag).
		WithName("Diagnostics").
		WithDescription("Runtime configuration without secrets").
		WithResponse(&model.DiagResponse{}).
		WithTags(tagSystem).
		Register()

	api.router.Handle("GET /openapi.json", http.HandlerFunc(api.serveOpenAPI))

	if api.opts.Metrics != nil {
		api.router.Handle("GET /metrics", api.opts.Metrics.Handler())
	}

	if api.opts.Frontend != nil {
		api.router.Handle("GET /", api.opts.Frontend)
	}
}

// serveOpenAPI serves the document describing the routes above
func (api *API) serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	data, err := api.router.OpenAPIJSON()
	if err != nil {
		api.opts.Logger.Error("marshal openapi document", "error", err)
		writeError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
