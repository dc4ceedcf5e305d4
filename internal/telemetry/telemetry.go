package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// instrumentationName scopes every tracer and meter this service creates.
const instrumentationName = "github.com/guillermoBallester/schemadvisor"

// Settings describe the process being instrumented.
type Settings struct {
	ServiceName string
	Version     string
	Mode        string // cli, server or stdio
	DatabaseURL string // only host, port and database name are exported
}

// Provider holds the OTel trace and metric providers for graceful shutdown.
type Provider struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Init creates and registers OTel trace and metric providers with OTLP gRPC exporters.
// The OTEL_EXPORTER_OTLP_ENDPOINT env var is read by the OTel SDK automatically.
func Init(ctx context.Context, s Settings) (*Provider, error) {
	res, err := newResource(ctx, s)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	p := &Provider{
		tp: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		),
		mp: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
			sdkmetric.WithResource(res),
		),
	}

	otel.SetTracerProvider(p.tp)
	otel.SetMeterProvider(p.mp)
	// W3C trace context on /mcp and /ws requests; stdio carries no headers.
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return p, nil
}

// newResource describes the advisor process and the database it analyzes.
func newResource(ctx context.Context, s Settings) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(s.ServiceName),
		semconv.ServiceVersion(s.Version),
		semconv.DBSystemPostgreSQL,
	}
	if s.Mode != "" {
		attrs = append(attrs, attribute.String("schemadvisor.mode", s.Mode))
	}
	attrs = append(attrs, databaseAttributes(s.DatabaseURL)...)

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}
	return res, nil
}

// databaseAttributes extracts the analyzed server and database from a
// connection string, dropping credentials. Unparsable strings yield nothing.
func databaseAttributes(databaseURL string) []attribute.KeyValue {
	if databaseURL == "" {
		return nil
	}
	cfg, err := pgconn.ParseConfig(databaseURL)
	if err != nil {
		return nil
	}
	var attrs []attribute.KeyValue
	if cfg.Host != "" {
		attrs = append(attrs, semconv.ServerAddress(cfg.Host), semconv.ServerPort(int(cfg.Port)))
	}
	if cfg.Database != "" {
		attrs = append(attrs, attribute.String("db.namespace", cfg.Database))
	}
	return attrs
}

// Tracer returns the service tracer from this provider.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(instrumentationName)
}

// Instruments returns metric instruments bound to this provider's meter.
func (p *Provider) Instruments() *Instruments {
	return NewInstrumentsFromMeter(p.mp.Meter(instrumentationName))
}

// Shutdown flushes and shuts down the trace and metric providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
		}
	}
	if p.mp != nil {
		if err := p.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down meter: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NoopTracer returns a tracer that does nothing (for when OTel is disabled).
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(instrumentationName)
}
