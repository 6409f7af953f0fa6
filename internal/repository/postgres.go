package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/cirocosta/todo-service-go/internal/model"
)

const (
	// DriverPgx selects github.com/jackc/pgx/v5/stdlib
	DriverPgx = "pgx"
	// DriverPQ selects github.com/lib/pq
	DriverPQ = "postgres"
)

// minTimeout is the smallest non-zero timeout a config may set
const minTimeout = time.Millisecond

const schemaSQL = `
CREATE TABLE IF NOT EXISTS todos (
	uuid       UUID PRIMARY KEY,
	text       TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const todoColumns = "uuid, text, completed, created_at, updated_at"

// PostgresConfig configures the PostgreSQL connection pool
type PostgresConfig struct {
	// URL is the connection string, either URL or keyword/value form
	URL string

	// Driver is the database/sql driver name, DriverPgx or DriverPQ
	Driver string

	// DisableSSL forces sslmode=disable; otherwise sslmode=require is used
	// unless URL already names a mode
	DisableSSL bool

	// MaxConns bounds the number of open connections
	MaxConns int

	// ConnectTimeout bounds establishing a single connection
	ConnectTimeout time.Duration

	// IdleTimeout closes connections idle for longer than this
	IdleTimeout time.Duration

	// QueryTimeout bounds every operation, including waiting for a free
	// connection from the pool
	QueryTimeout time.Duration
}

// DefaultPostgresConfig returns pool settings sized for small, short-lived deployments
func DefaultPostgresConfig(url string) PostgresConfig {
	return PostgresConfig{
		URL:            url,
		Driver:         DriverPgx,
		MaxConns:       3,
		ConnectTimeout: 10 * time.Second,
		IdleTimeout:    30 * time.Second,
		QueryTimeout:   10 * time.Second,
	}
}

// Validate checks the configuration before any connection is attempted
func (c PostgresConfig) Validate() error {
	if c.URL == "" {
		return errors.New("database url cannot be empty")
	}
	if c.Driver != DriverPgx && c.Driver != DriverPQ {
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.MaxConns <= 0 {
		return errors.New("max conns must be positive")
	}
	for _, d := range []time.Duration{c.ConnectTimeout, c.IdleTimeout, c.QueryTimeout} {
		switch {
		case d < 0:
			return errors.New("timeouts cannot be negative")
		case d > 0 && d < minTimeout:
			return fmt.Errorf("timeouts must be at least %s", minTimeout)
		}
	}
	return nil
}

// DSN returns the connection string with sslmode and connect_timeout applied.
// Values already present in URL are kept.
func (c PostgresConfig) DSN() (string, error) {
	sslmode := "require"
	if c.DisableSSL {
		sslmode = "disable"
	}

	var connectTimeout string
	if c.ConnectTimeout > 0 {
		connectTimeout = strconv.Itoa(int(math.Ceil(c.ConnectTimeout.Seconds())))
	}

	if strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://") {
		u, err := url.Parse(c.URL)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}

		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", sslmode)
		}
		if q.Get("connect_timeout") == "" && connectTimeout != "" {
			q.Set("connect_timeout", connectTimeout)
		}
		u.RawQuery = q.Encode()

		return u.String(), nil
	}

	dsn := c.URL
	if !strings.Contains(dsn, "sslmode=") {
		dsn += " sslmode=" + sslmode
	}
	if !strings.Contains(dsn, "connect_timeout=") && connectTimeout != "" {
		dsn += " connect_timeout=" + connectTimeout
	}

	return dsn, nil
}

// PostgresTodoRepository implements TodoRepository on a PostgreSQL table.
// Every operation is a single parameterized statement.
type PostgresTodoRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewPostgresTodoRepository opens the pool, verifies connectivity with a
// round-trip query and ensures the todos table exists
func NewPostgresTodoRepository(ctx context.Context, cfg PostgresConfig) (*PostgresTodoRepository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	repo := &PostgresTodoRepository{
		db:           db,
		queryTimeout: cfg.QueryTimeout,
	}

	if err := repo.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := repo.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying pool
func (r *PostgresTodoRepository) DB() *sql.DB {
	return r.db
}

// FindAll returns all todos
func (r *PostgresTodoRepository) FindAll(ctx context.Context) ([]model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}

	return todos, nil
}

// FindByID returns a specific todo by ID
func (r *PostgresTodoRepository) FindByID(ctx context.Context, id string) (model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE uuid = $1", id)

	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, ErrTodoNotFound{ID: id}
		}
		return model.Todo{}, fmt.Errorf("query todo: %w", err)
	}

	return todo, nil
}

// Create adds a new todo
func (r *PostgresTodoRepository) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		"INSERT INTO todos ("+todoColumns+") VALUES ($1, $2, $3, $4, $5) RETURNING "+todoColumns,
		todo.ID, todo.Text, todo.Completed, todo.CreatedAt, todo.UpdatedAt)

	created, err := scanTodo(row)
	if err != nil {
		return model.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	return created, nil
}

// Update modifies an existing todo
func (r *PostgresTodoRepository) Update(ctx context.Context, id string, todo model.Todo) (model.Todo, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		"UPDATE todos SET text = $1, completed = $2, updated_at = $3 WHERE uuid = $4 RETURNING "+todoColumns,
		todo.Text, todo.Completed, todo.UpdatedAt, id)

	updated, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Todo{}, ErrTodoNotFound{ID: id}
		}
		return model.Todo{}, fmt.Errorf("update todo: %w", err)
	}

	return updated, nil
}

// Delete removes a todo
func (r *PostgresTodoRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE uuid = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return n > 0, nil
}

// DeleteAll removes every todo
func (r *PostgresTodoRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM todos"); err != nil {
		return fmt.Errorf("delete todos: %w", err)
	}

	return nil
}

// Ping runs a trivial query through the pool
func (r *PostgresTodoRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

// Kind implements TodoRepository
func (r *PostgresTodoRepository) Kind() Kind {
	return KindPostgres
}

// Close closes the connection pool
func (r *PostgresTodoRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresTodoRepository) ensureSchema(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}

	return nil
}

func (r *PostgresTodoRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (model.Todo, error) {
	var todo model.Todo
	if err := row.Scan(&todo.ID, &todo.Text, &todo.Completed, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
		return model.Todo{}, err
	}

	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()

	return todo, nil
}
