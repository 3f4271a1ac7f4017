// Package telemetry provides OpenTelemetry tracing for backlogger runs.
//
// Tracing is disabled by default and costs nothing when off.
//
// # Configuration
//
//	BACKLOGGER_OTEL_ENABLED=true   enable tracing (default: off)
//	BACKLOGGER_OTEL_FILE=path      write spans as JSON to path instead of stderr
//	OTEL_SERVICE_NAME=backlogger   override service name
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/steveyegge/backlogger"

var shutdownFns []func(context.Context) error

// Enabled reports whether tracing is active (BACKLOGGER_OTEL_ENABLED=true).
func Enabled() bool {
	return os.Getenv("BACKLOGGER_OTEL_ENABLED") == "true"
}

// Init configures the global tracer provider. When tracing is not enabled a
// no-op provider is installed.
func Init(ctx context.Context, serviceName, version string) error {
	if !Enabled() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		return nil
	}

	var out io.Writer = os.Stderr
	if path := os.Getenv("BACKLOGGER_OTEL_FILE"); path != "" {
		// #nosec G304 -- path comes from the operator's environment
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("telemetry: open %s: %w", path, err)
		}
		out = f
		shutdownFns = append(shutdownFns, func(context.Context) error { return f.Close() })
	}

	tp, err := NewTracerProvider(ctx, serviceName, version, out)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	// Flush spans before the file they go to is closed.
	shutdownFns = append([]func(context.Context) error{tp.Shutdown}, shutdownFns...)
	return nil
}

// NewTracerProvider builds a provider exporting every span to w.
func NewTracerProvider(ctx context.Context, serviceName, version string, w io.Writer) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("telemetry: exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(exp),
	), nil
}

// Tracer returns the backlogger tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationScope)
}

// Start opens a span with the given attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Shutdown flushes pending spans and releases exporters.
func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}
