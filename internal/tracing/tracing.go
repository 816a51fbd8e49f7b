// Package tracing provides OpenTelemetry tracing for upstream calls.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"telehub-proxy-go/internal/config"
)

// ServiceName identifies the proxy in exported spans.
const ServiceName = "telehub-proxy"

// Tracing bundles the tracer used by the upstream client with its propagator.
type Tracing struct {
	Tracer trace.Tracer
	// Propagator is nil unless trace context should be injected into upstream requests.
	Propagator propagation.TextMapPropagator

	shutdown func(context.Context) error
}

// New builds a Tracing from config. When no OTLP endpoint is configured the
// tracer is a no-op and nothing is exported.
func New(cfg *config.Config, version string, logger *slog.Logger) (*Tracing, error) {
	logger = logger.With("component", "tracing")

	if cfg.Tracing.Endpoint == "" {
		logger.Debug("tracing disabled (tracing.endpoint not set)")
		return Noop(), nil
	}

	ctx := context.Background()

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.Tracing.Endpoint)}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
	)

	t := &Tracing{
		Tracer:   tp.Tracer(ServiceName),
		shutdown: tp.Shutdown,
	}
	if cfg.Tracing.Propagate {
		t.Propagator = propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)
	}

	logger.Info("tracing initialized",
		"endpoint", cfg.Tracing.Endpoint,
		"sample_ratio", cfg.Tracing.SampleRatio,
		"propagate", cfg.Tracing.Propagate,
	)
	return t, nil
}

// Noop returns a Tracing that records nothing.
func Noop() *Tracing {
	return &Tracing{Tracer: noop.NewTracerProvider().Tracer(ServiceName)}
}

// WithProvider wraps an existing provider. Used by tests with an in-memory recorder.
func WithProvider(tp trace.TracerProvider, prop propagation.TextMapPropagator) *Tracing {
	return &Tracing{Tracer: tp.Tracer(ServiceName), Propagator: prop}
}

// Shutdown flushes pending spans. It is a no-op for disabled tracing.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}
