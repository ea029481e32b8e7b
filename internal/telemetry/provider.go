// Package telemetry provides OpenTelemetry tracing for the activities service.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names accepted by NewProvider.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

const defaultServiceName = "activities"

// Provider owns the tracer provider and hands out tracers.
type Provider struct {
	sdk      *sdktrace.TracerProvider
	provider trace.TracerProvider
	enabled  bool
}

type providerConfig struct {
	exporter    string
	serviceName string
	writer      io.Writer
	processors  []sdktrace.SpanProcessor
}

// Option configures NewProvider.
type Option func(*providerConfig)

// WithExporter selects the span exporter ("none" or "stdout").
func WithExporter(name string) Option {
	return func(c *providerConfig) {
		c.exporter = name
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(c *providerConfig) {
		if name != "" {
			c.serviceName = name
		}
	}
}

// WithWriter redirects the stdout exporter.
func WithWriter(w io.Writer) Option {
	return func(c *providerConfig) {
		if w != nil {
			c.writer = w
		}
	}
}

// WithSpanProcessor registers an extra span processor. Registering one
// enables the SDK provider even when no exporter is selected.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(c *providerConfig) {
		if p != nil {
			c.processors = append(c.processors, p)
		}
	}
}

// NewProvider builds a tracer provider. With no exporter and no extra
// processors it returns a no-op provider.
func NewProvider(_ context.Context, opts ...Option) (*Provider, error) {
	cfg := &providerConfig{
		exporter:    ExporterNone,
		serviceName: defaultServiceName,
		writer:      os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.exporter {
	case ExporterNone, "":
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(cfg.writer))
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %q", cfg.exporter)
	}

	if exporter == nil && len(cfg.processors) == 0 {
		return &Provider{provider: noop.NewTracerProvider()}, nil
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(semconv.ServiceName(cfg.serviceName))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, p := range cfg.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}

	sdk := sdktrace.NewTracerProvider(tpOpts...)
	return &Provider{sdk: sdk, provider: sdk, enabled: true}, nil
}

// Install makes p the global tracer provider and sets W3C trace context
// propagation.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// TracerProvider returns the underlying provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.provider
}

// Tracer returns a named tracer.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.provider.Tracer(name)
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Shutdown flushes pending spans. Safe on a no-op provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
