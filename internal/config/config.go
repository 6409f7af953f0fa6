// package config loads the service configuration from defaults, an optional
// config file, dotenv files and the environment
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cirocosta/todo-service-go/internal/model"
	"github.com/cirocosta/todo-service-go/internal/repository"
)

// EnvProduction disables destructive admin routes by default
const EnvProduction = "production"

// config keys
const (
	KeyEnv                  = "env"
	KeyAddr                 = "addr"
	KeyPort                 = "port"
	KeyDatabaseURL          = "database.url"
	KeyDatabaseDriver       = "database.driver"
	KeyDatabaseDisableSSL   = "database.disable_ssl"
	KeyDatabaseMaxConns     = "database.max_conns"
	KeyDatabaseConnTimeout  = "database.connect_timeout"
	KeyDatabaseIdleTimeout  = "database.idle_timeout"
	KeyDatabaseQueryTimeout = "database.query_timeout"
	KeyAllowMemoryFallback  = "storage.allow_memory_fallback"
	KeyServerless           = "storage.serverless"
	KeyDataFile             = "storage.data_file"
	KeyAllowClear           = "api.allow_clear"
	KeyLogLevel             = "log.level"
	KeyLogFormat            = "log.format"
	KeyTracingEnabled       = "tracing.enabled"
)

// envBindings maps config keys to the environment variables read for them,
// in order of precedence
var envBindings = map[string][]string{
	KeyEnv:                  {"TODO_ENV", "APP_ENV", "NODE_ENV"},
	KeyAddr:                 {"TODO_ADDR"},
	KeyPort:                 {"PORT"},
	KeyDatabaseURL:          {"TODO_DATABASE_URL", "POSTGRES_URL", "DATABASE_URL"},
	KeyDatabaseDriver:       {"TODO_DATABASE_DRIVER"},
	KeyDatabaseDisableSSL:   {"DISABLE_DB_SSL"},
	KeyDatabaseMaxConns:     {"TODO_DATABASE_MAX_CONNS"},
	KeyDatabaseConnTimeout:  {"TODO_DATABASE_CONNECT_TIMEOUT"},
	KeyDatabaseIdleTimeout:  {"TODO_DATABASE_IDLE_TIMEOUT"},
	KeyDatabaseQueryTimeout: {"TODO_DATABASE_QUERY_TIMEOUT"},
	KeyAllowMemoryFallback:  {"ALLOW_MEMORY_FALLBACK"},
	KeyServerless:           {"TODO_SERVERLESS", "VERCEL"},
	KeyDataFile:             {"TODO_DATA_FILE"},
	KeyAllowClear:           {"TODO_ALLOW_CLEAR"},
	KeyLogLevel:             {"LOG_LEVEL"},
	KeyLogFormat:            {"LOG_FORMAT"},
	KeyTracingEnabled:       {"TODO_TRACING"},
}

// Config is the fully resolved service configuration
type Config struct {
	Env      string
	Addr     string
	Database repository.PostgresConfig
	Storage  StorageConfig
	API      APIConfig
	Log      LogConfig
	Tracing  TracingConfig
}

// StorageConfig controls backend selection
type StorageConfig struct {
	AllowMemoryFallback bool
	Serverless          bool
	DataFile            string
}

// APIConfig controls the HTTP surface
type APIConfig struct {
	AllowClear bool
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  slog.Level
	Format string
}

// TracingConfig controls OpenTelemetry export
type TracingConfig struct {
	Enabled bool
}

// Selector returns the storage selector settings
func (c Config) Selector() repository.SelectorConfig {
	return repository.SelectorConfig{
		Env:                 c.Env,
		Serverless:          c.Storage.Serverless,
		AllowMemoryFallback: c.Storage.AllowMemoryFallback,
		DataFile:            c.Storage.DataFile,
		Postgres:            c.Database,
	}
}

// New returns a viper instance with defaults and environment bindings set
func New() *viper.Viper {
	v := viper.New()

	defaults := repository.DefaultPostgresConfig("")

	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyDatabaseDriver, defaults.Driver)
	v.SetDefault(KeyDatabaseDisableSSL, false)
	v.SetDefault(KeyDatabaseMaxConns, defaults.MaxConns)
	v.SetDefault(KeyDatabaseConnTimeout, defaults.ConnectTimeout)
	v.SetDefault(KeyDatabaseIdleTimeout, defaults.IdleTimeout)
	v.SetDefault(KeyDatabaseQueryTimeout, defaults.QueryTimeout)
	v.SetDefault(KeyAllowMemoryFallback, "true")
	v.SetDefault(KeyServerless, false)
	v.SetDefault(KeyDataFile, filepath.Join("data", "todos.json"))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyTracingEnabled, false)

	for key, envs := range envBindings {
		// BindEnv only fails without a key
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	return v
}

// ReadFile merges a YAML (or any viper supported) config file into v
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	return nil
}

// LoadDotEnv loads .env.<env> and .env from dir into the process
// environment. Variables already set are never overwritten and missing files
// are skipped.
func LoadDotEnv(dir, env string) error {
	var files []string
	for _, name := range []string{".env." + env, ".env"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}

	if len(files) == 0 {
		return nil
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}

	return nil
}

// CurrentEnv returns the environment name from the process environment
// alone, so the matching dotenv file can be picked before loading
func CurrentEnv() string {
	for _, name := range envBindings[KeyEnv] {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return "development"
}

// Load resolves and validates the configuration held by v
func Load(v *viper.Viper) (Config, error) {
	var timeouts [3]time.Duration
	for i, key := range []string{KeyDatabaseConnTimeout, KeyDatabaseIdleTimeout, KeyDatabaseQueryTimeout} {
		d, err := durationSetting(v, key)
		if err != nil {
			return Config{}, err
		}
		timeouts[i] = d
	}

	cfg := Config{
		Env:  v.GetString(KeyEnv),
		Addr: v.GetString(KeyAddr),
		Database: repository.PostgresConfig{
			URL:            v.GetString(KeyDatabaseURL),
			Driver:         v.GetString(KeyDatabaseDriver),
			DisableSSL:     v.GetBool(KeyDatabaseDisableSSL),
			MaxConns:       v.GetInt(KeyDatabaseMaxConns),
			ConnectTimeout: timeouts[0],
			IdleTimeout:    timeouts[1],
			QueryTimeout:   timeouts[2],
		},
		Storage: StorageConfig{
			AllowMemoryFallback: !strings.EqualFold(strings.TrimSpace(v.GetString(KeyAllowMemoryFallback)), "false"),
			Serverless:          v.GetBool(KeyServerless),
			DataFile:            v.GetString(KeyDataFile),
		},
		Tracing: TracingConfig{
			Enabled: v.GetBool(KeyTracingEnabled),
		},
	}

	if port := v.GetString(KeyPort); port != "" {
		cfg.Addr = ":" + port
	}

	cfg.API.AllowClear = cfg.Env != EnvProduction
	if v.IsSet(KeyAllowClear) {
		cfg.API.AllowClear = v.GetBool(KeyAllowClear)
	}

	if err := cfg.Log.Level.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", v.GetString(KeyLogLevel))
	}
	cfg.Log.Format = strings.ToLower(v.GetString(KeyLogFormat))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// durationSetting reads key as a duration. Bare integers are seconds.
func durationSetting(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.Get(key)
	if d, ok := raw.(time.Duration); ok {
		return d, nil
	}

	s := strings.TrimSpace(fmt.Sprint(raw))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q for %s", s, key)
	}
	return d, nil
}

// Validate checks the configuration independently of whether a database is used
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.Storage.DataFile == "" {
		return errors.New("data file cannot be empty")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}

	// the url is only required once postgres is chosen
	db := c.Database
	db.URL = "-"
	if err := db.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return nil
}

// NewLogger builds the process logger described by c
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}

	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Diagnostics describes the configuration without exposing secrets
func (c Config) Diagnostics() model.Diagnostics {
	return model.Diagnostics{
		Env:                 c.Env,
		Serverless:          c.Storage.Serverless,
		DatabaseConfigured:  c.Database.URL != "",
		DatabaseDriver:      c.Database.Driver,
		DatabaseSSLDisabled: c.Database.DisableSSL,
		AllowMemoryFallback: c.Storage.AllowMemoryFallback,
		DataFile:            c.Storage.DataFile,
		AllowClear:          c.API.AllowClear,
		TracingEnabled:      c.Tracing.Enabled,
	}
}
