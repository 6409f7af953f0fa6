package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cirocosta/todo-service-go/internal/model"
)

// EnvTest is the environment name that forces the file backend
const EnvTest = "test"

// SelectorConfig holds the signals the storage decision is made from
type SelectorConfig struct {
	// Env is the deployment environment ("test", "production", ...)
	Env string

	// Serverless marks a constrained environment without a writable filesystem
	Serverless bool

	// AllowMemoryFallback permits downgrading to memory when the database
	// cannot be reached; when false the failure is returned to the caller
	AllowMemoryFallback bool

	// DataFile is the JSON document used by the file backend
	DataFile string

	// Postgres configures the relational backend; an empty URL means no database
	Postgres PostgresConfig
}

// PostgresOpener opens the relational backend. It is a field of Selector so
// tests can substitute a failing database.
type PostgresOpener func(ctx context.Context, cfg PostgresConfig) (TodoRepository, error)

// Selector picks exactly one storage backend, once, and reports its health
type Selector struct {
	cfg          SelectorConfig
	logger       *slog.Logger
	openPostgres PostgresOpener
	wrap         func(TodoRepository) TodoRepository

	mu                sync.Mutex
	initialized       bool
	repo              TodoRepository
	fallbackActivated bool
	lastError         string
}

// SelectorOption customizes a Selector
type SelectorOption func(*Selector)

// WithPostgresOpener replaces the function used to open the relational backend
func WithPostgresOpener(open PostgresOpener) SelectorOption {
	return func(s *Selector) {
		s.openPostgres = open
	}
}

// WithWrapper decorates the chosen backend, e.g. with Instrument
func WithWrapper(wrap func(TodoRepository) TodoRepository) SelectorOption {
	return func(s *Selector) {
		s.wrap = wrap
	}
}

// NewSelector creates a selector; no backend is chosen until Init
func NewSelector(cfg SelectorConfig, logger *slog.Logger, opts ...SelectorOption) *Selector {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Selector{
		cfg:    cfg,
		logger: logger,
		openPostgres: func(ctx context.Context, cfg PostgresConfig) (TodoRepository, error) {
			return NewPostgresTodoRepository(ctx, cfg)
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Init chooses and initializes the backend. Calls after a successful Init
// are no-ops. A database failure without fallback permission is returned
// and leaves the selector uninitialized.
func (s *Selector) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	repo, err := s.choose(ctx)
	if err != nil {
		return err
	}

	if s.wrap != nil {
		repo = s.wrap(repo)
	}

	s.repo = repo
	s.initialized = true

	return nil
}

// Repository returns the active backend, initializing it on first use
func (s *Selector) Repository(ctx context.Context) (TodoRepository, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo, nil
}

// Health probes the active backend. After a failed Init it reports the
// recorded error instead of attempting another connection; only Init and
// Repository retry.
func (s *Selector) Health(ctx context.Context) model.Health {
	s.mu.Lock()
	failed := !s.initialized && s.lastError != ""
	lastError := s.lastError
	s.mu.Unlock()

	if failed {
		return model.Health{
			Storage:   string(s.intendedKind()),
			LastError: lastError,
		}
	}

	repo, err := s.Repository(ctx)
	if err != nil {
		return model.Health{
			Storage:   string(s.intendedKind()),
			LastError: err.Error(),
		}
	}

	health := model.Health{
		Storage:   string(repo.Kind()),
		Reachable: true,
	}

	if err := repo.Ping(ctx); err != nil {
		health.Reachable = false

		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
	}

	s.mu.Lock()
	health.FallbackActivated = s.fallbackActivated
	health.LastError = s.lastError
	s.mu.Unlock()

	return health
}

// FallbackActivated reports whether the database was replaced by memory
func (s *Selector) FallbackActivated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fallbackActivated
}

// Close releases the active backend
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo == nil {
		return nil
	}

	return s.repo.Close()
}

// choose must be called with the mutex held
func (s *Selector) choose(ctx context.Context) (TodoRepository, error) {
	noDatabase := s.cfg.Postgres.URL == ""

	switch s.intendedKind() {
	case KindMemory:
		s.logger.Warn("using in-memory storage",
			"reason", "serverless environment without database url")
		return NewInMemoryTodoRepository(), nil

	case KindFile:
		repo, err := NewFileTodoRepository(s.cfg.DataFile)
		if err != nil {
			return nil, err
		}

		reason := "no database url provided"
		if !noDatabase {
			reason = "test environment"
		}
		s.logger.Warn("using json file storage", "reason", reason, "path", s.cfg.DataFile)

		return repo, nil
	}

	repo, err := s.openPostgres(ctx, s.cfg.Postgres)
	if err == nil {
		s.logger.Info("using postgres storage", "reason", "database connection established")
		return repo, nil
	}

	s.lastError = err.Error()
	s.logger.Error("postgres connection failed", "error", err)

	if !s.cfg.AllowMemoryFallback {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s.fallbackActivated = true
	s.logger.Warn("using in-memory storage", "reason", "database unreachable, fallback allowed")

	return NewInMemoryTodoRepository(), nil
}

// intendedKind evaluates the decision table before any connection attempt
func (s *Selector) intendedKind() Kind {
	noDatabase := s.cfg.Postgres.URL == ""

	switch {
	case noDatabase && s.cfg.Serverless:
		return KindMemory
	case noDatabase || s.cfg.Env == EnvTest:
		return KindFile
	default:
		return KindPostgres
	}
}
