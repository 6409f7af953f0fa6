package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cirocosta/todo-service-go/internal/api"
	"github.com/cirocosta/todo-service-go/internal/config"
	"github.com/cirocosta/todo-service-go/internal/metrics"
	"github.com/cirocosta/todo-service-go/internal/repository"
	"github.com/cirocosta/todo-service-go/internal/service"
	"github.com/cirocosta/todo-service-go/internal/telemetry"
	"github.com/cirocosta/todo-service-go/web"
)

const shutdownTimeout = 5 * time.Second

var runAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// the flag wins over TODO_ADDR and PORT
		if cmd.Flags().Changed("addr") {
			cfg.Addr = runAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&runAddr, "addr", ":8080", "HTTP server address")
}

// loadConfig reads dotenv files, the optional config file and the environment
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(".", config.CurrentEnv()); err != nil {
		return config.Config{}, err
	}

	v := config.New()
	if err := config.ReadFile(v, configFile); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(telemetry.Config{
		Enabled: cfg.Tracing.Enabled,
		Writer:  os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()

	m := metrics.New()

	selector := repository.NewSelector(cfg.Selector(), logger,
		repository.WithWrapper(func(repo repository.TodoRepository) repository.TodoRepository {
			return repository.Instrument(repo, m)
		}),
	)
	defer func() {
		if err := selector.Close(); err != nil {
			logger.Error("storage close error", "error", err)
		}
	}()

	// strict mode surfaces an unreachable database here
	if err := selector.Init(ctx); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	if err := registerPoolMetrics(ctx, selector, m); err != nil {
		return err
	}
	m.ObserveHealth(selector.Health(ctx))

	r := api.NewRouter(service.NewTodoService(selector), api.Options{
		Logger:      logger,
		Metrics:     m,
		AllowClear:  cfg.API.AllowClear,
		Diagnostics: cfg.Diagnostics(),
		Frontend:    web.Handler(),
		Version:     version,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// registerPoolMetrics exports connection pool statistics when postgres is active
func registerPoolMetrics(ctx context.Context, selector *repository.Selector, m *metrics.Metrics) error {
	repo, err := selector.Repository(ctx)
	if err != nil {
		return err
	}

	if u, ok := repo.(interface{ Unwrap() repository.TodoRepository }); ok {
		repo = u.Unwrap()
	}

	pg, ok := repo.(*repository.PostgresTodoRepository)
	if !ok {
		return nil
	}

	if err := m.RegisterDB(pg.DB()); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}

	return nil
}
