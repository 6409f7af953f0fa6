package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cirocosta/todo-service-go/internal/model"
)

const tracerName = "github.com/cirocosta/todo-service-go/internal/repository"

// Observer receives one call per storage operation
type Observer interface {
	ObserveStorageOperation(backend Kind, operation string, duration time.Duration, err error)
}

// instrumented wraps a TodoRepository with tracing and an Observer
type instrumented struct {
	next     TodoRepository
	observer Observer
	tracer   trace.Tracer
}

// Instrument decorates repo so every operation is traced and reported to
// observer. A nil observer only traces.
func Instrument(repo TodoRepository, observer Observer) TodoRepository {
	return &instrumented{
		next:     repo,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
	}
}

func (r *instrumented) FindAll(ctx context.Context) (todos []model.Todo, err error) {
	ctx, done := r.start(ctx, "find_all")
	defer func() { done(err) }()

	return r.next.FindAll(ctx)
}

func (r *instrumented) FindByID(ctx context.Context, id string) (todo model.Todo, err error) {
	ctx, done := r.start(ctx, "find_by_id", attribute.String("todo.id", id))
	defer func() { done(err) }()

	return r.next.FindByID(ctx, id)
}

func (r *instrumented) Create(ctx context.Context, todo model.Todo) (created model.Todo, err error) {
	ctx, done := r.start(ctx, "create", attribute.String("todo.id", todo.ID))
	defer func() { done(err) }()

	return r.next.Create(ctx, todo)
}

func (r *instrumented) Update(ctx context.Context, id string, todo model.Todo) (updated model.Todo, err error) {
	ctx, done := r.start(ctx, "update", attribute.String("todo.id", id))
	defer func() { done(err) }()

	return r.next.Update(ctx, id, todo)
}

func (r *instrumented) Delete(ctx context.Context, id string) (deleted bool, err error) {
	ctx, done := r.start(ctx, "delete", attribute.String("todo.id", id))
	defer func() { done(err) }()

	return r.next.Delete(ctx, id)
}

func (r *instrumented) DeleteAll(ctx context.Context) (err error) {
	ctx, done := r.start(ctx, "delete_all")
	defer func() { done(err) }()

	return r.next.DeleteAll(ctx)
}

func (r *instrumented) Ping(ctx context.Context) (err error) {
	ctx, done := r.start(ctx, "ping")
	defer func() { done(err) }()

	return r.next.Ping(ctx)
}

func (r *instrumented) Kind() Kind {
	return r.next.Kind()
}

func (r *instrumented) Close() error {
	return r.next.Close()
}

// Unwrap returns the decorated backend
func (r *instrumented) Unwrap() TodoRepository {
	return r.next
}

func (r *instrumented) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	kind := r.next.Kind()
	attrs = append(attrs,
		attribute.String("storage.backend", string(kind)),
		attribute.String("storage.operation", operation),
	)

	ctx, span := r.tracer.Start(ctx, "storage."+operation, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		// a missing todo is an expected outcome, not a failure
		if err != nil && !IsNotFound(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if r.observer != nil {
			r.observer.ObserveStorageOperation(kind, operation, time.Since(start), err)
		}
	}
}
