package telemetry

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/DynamicGoose/magma-ecs/pkg/assert"
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var setMarshalerOnce sync.Once //nolint:gochecknoglobals // zerolog's marshaler is process-wide

// setupTracing returns a tracer for the service and the function that flushes it. The tracer is a
// noop when tracing is disabled.
func setupTracing(ctx context.Context, opts Options) (otelTrace.Tracer, func(context.Context) error, error) {
	nopShutdown := func(context.Context) error { return nil }

	if !opts.TraceEnabled {
		return noop.NewTracerProvider().Tracer(opts.ServiceName), nopShutdown, nil
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
		))
	if err != nil {
		return noop.NewTracerProvider().Tracer(opts.ServiceName), nopShutdown,
			eris.Wrap(err, "failed to create trace resource")
	}

	tracerProvider, err := newTracerProvider(ctx, res, opts)
	if err != nil {
		return noop.NewTracerProvider().Tracer(opts.ServiceName), nopShutdown, err
	}

	return tracerProvider.Tracer(opts.ServiceName), tracerProvider.Shutdown, nil
}

func newTracerProvider(ctx context.Context, res *resource.Resource, opts Options) (*trace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(opts.TraceEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create OTLP trace exporter")
	}

	var sampler trace.Sampler
	switch opts.TraceSampleRate {
	case 1.0:
		sampler = trace.AlwaysSample()
	case 0.0:
		sampler = trace.NeverSample()
	default:
		sampler = trace.ParentBased(trace.TraceIDRatioBased(opts.TraceSampleRate))
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(sampler),
	), nil
}

// newLogger creates a logger with the specified format. Interface fields are encoded with go-json.
func newLogger(opts Options) zerolog.Logger {
	setMarshalerOnce.Do(func() {
		zerolog.InterfaceMarshalFunc = json.Marshal
	})

	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var writer io.Writer
	switch opts.LogFormat {
	case LogFormatPretty:
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	case LogFormatJSON:
		writer = out
	case LogFormatUndefined:
		assert.That(false, "log format must be validated before building the logger")
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
}
