package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Instruments holds pre-created OTel metric instruments and implements
// port.Instrumentation.
type Instruments struct {
	ProbeCount      metric.Int64Counter
	ProbeDuration   metric.Float64Histogram
	ProbeErrors     metric.Int64Counter
	RuleDuration    metric.Float64Histogram
	SessionDuration metric.Float64Histogram
	ToolDuration    metric.Float64Histogram
}

// NewInstruments creates metric instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return NewInstrumentsFromMeter(otel.Meter(instrumentationName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return NewInstrumentsFromMeter(noop.NewMeterProvider().Meter(instrumentationName))
}

// NewInstrumentsFromMeter creates instruments on an explicit meter.
func NewInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// OTel SDK returns noop instruments on error; safe to discard.
	probeCount, _ := meter.Int64Counter("schemadvisor.probe.count",
		metric.WithDescription("Total number of catalog probes executed"),
	)
	probeDuration, _ := meter.Float64Histogram("schemadvisor.probe.duration",
		metric.WithDescription("Catalog probe duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	probeErrors, _ := meter.Int64Counter("schemadvisor.probe.errors",
		metric.WithDescription("Total number of rejected or failed probes"),
	)
	ruleDuration, _ := meter.Float64Histogram("schemadvisor.rule.duration",
		metric.WithDescription("Single rule invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	sessionDuration, _ := meter.Float64Histogram("schemadvisor.session.duration",
		metric.WithDescription("Full advisory session duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	toolDuration, _ := meter.Float64Histogram("schemadvisor.tool.duration",
		metric.WithDescription("MCP tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Instruments{
		ProbeCount:      probeCount,
		ProbeDuration:   probeDuration,
		ProbeErrors:     probeErrors,
		RuleDuration:    ruleDuration,
		SessionDuration: sessionDuration,
		ToolDuration:    toolDuration,
	}
}

func (i *Instruments) RecordProbeDuration(ctx context.Context, ms float64) {
	i.ProbeDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementProbeCount(ctx context.Context) {
	i.ProbeCount.Add(ctx, 1)
}

func (i *Instruments) IncrementProbeErrors(ctx context.Context) {
	i.ProbeErrors.Add(ctx, 1)
}

func (i *Instruments) RecordRuleDuration(ctx context.Context, rule string, ms float64) {
	i.RuleDuration.Record(ctx, ms, metric.WithAttributes(attribute.String("rule", rule)))
}

func (i *Instruments) RecordSessionDuration(ctx context.Context, ms float64) {
	i.SessionDuration.Record(ctx, ms)
}

func (i *Instruments) RecordToolDuration(ctx context.Context, tool string, ms float64) {
	i.ToolDuration.Record(ctx, ms, metric.WithAttributes(attribute.String("mcp.tool", tool)))
}
