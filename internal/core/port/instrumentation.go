package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordProbeDuration(ctx context.Context, ms float64)
	IncrementProbeCount(ctx context.Context)
	IncrementProbeErrors(ctx context.Context)
	RecordRuleDuration(ctx context.Context, rule string, ms float64)
	RecordSessionDuration(ctx context.Context, ms float64)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordProbeDuration(context.Context, float64)        {}
func (NoopInstrumentation) IncrementProbeCount(context.Context)                 {}
func (NoopInstrumentation) IncrementProbeErrors(context.Context)                {}
func (NoopInstrumentation) RecordRuleDuration(context.Context, string, float64) {}
func (NoopInstrumentation) RecordSessionDuration(context.Context, float64)      {}
