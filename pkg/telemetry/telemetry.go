// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"os"
	"path/filepath"

	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var tracer trace.Tracer

func enabled() bool { return os.Getenv("VERSIO_TELEMETRY") == "1" }

// Init configures OpenTelemetry; call this early in main(). When telemetry
// is not enabled, a noop provider is installed and spans cost nothing.
func Init(service string) error {
	if !enabled() {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(service)
		return nil
	}

	dir := filepath.Join(os.Getenv("HOME"), ".versio", "telemetry")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return cerr.Wrap(err, "failed to create telemetry directory")
	}

	file, err := os.OpenFile(filepath.Join(dir, "telemetry.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return cerr.Wrap(err, "failed to open telemetry file")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file))
	if err != nil {
		return cerr.Wrap(err, "failed to create trace exporter")
	}

	res, err := sdkresource.New(context.Background(),
		sdkresource.WithAttributes(semconv.ServiceName(service)))
	if err != nil {
		return cerr.Wrap(err, "failed to create telemetry resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(service)
	return nil
}

// Start opens a span under the configured tracer.
func Start(ctx context.Context, name string) (context.Context, trace.Span) {
	if tracer == nil {
		tp := noop.NewTracerProvider()
		tracer = tp.Tracer("versio")
	}
	return tracer.Start(ctx, name)
}
