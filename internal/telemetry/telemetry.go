// package telemetry installs the OpenTelemetry tracer provider
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops span export
type ShutdownFunc func(ctx context.Context) error

// Config controls span export
type Config struct {
	// Enabled installs an SDK tracer provider; otherwise the global no-op
	// provider stays in place
	Enabled bool

	// Writer receives the exported spans, one JSON document each
	Writer io.Writer
}

// Setup installs a global tracer provider that writes spans to cfg.Writer.
// The returned function must be called on shutdown.
func Setup(cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	if cfg.Writer == nil {
		return nil, errors.New("telemetry writer cannot be nil")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer))
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Shutdown, nil
}
