package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type ruleKey struct{}
type targetKey struct{}

// WithRule returns a context carrying the running rule's name for audit logging.
func WithRule(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ruleKey{}, name)
}

// WithTarget returns a context carrying the rule's target for audit logging.
func WithTarget(ctx context.Context, target string) context.Context {
	return context.WithValue(ctx, targetKey{}, target)
}

func stringFromCtx(ctx context.Context, key any) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// ProbeService guards, traces, meters and audits every query a rule issues
// before delegating to the database probe.
type ProbeService struct {
	validator port.QueryValidator
	probe     port.SchemaProbe
	auditor   port.ProbeAuditor
	logger    *slog.Logger
	tracer    trace.Tracer
	inst      port.Instrumentation
}

func NewProbeService(validator port.QueryValidator, probe port.SchemaProbe, auditor port.ProbeAuditor, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *ProbeService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &ProbeService{
		validator: validator,
		probe:     probe,
		auditor:   auditor,
		logger:    logger,
		tracer:    tracer,
		inst:      inst,
	}
}

// Query validates the SQL statement and, if it is read-only, runs it.
func (s *ProbeService) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rule := stringFromCtx(ctx, ruleKey{})
	target := stringFromCtx(ctx, targetKey{})

	ctx, span := s.tracer.Start(ctx, "ProbeService.Query",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation.name", "probe"),
			attribute.String("db.statement", sql),
			attribute.String("rule", rule),
			attribute.String("target", target),
		),
	)
	defer span.End()

	if err := s.validator.Validate(sql); err != nil {
		s.logger.WarnContext(ctx, "probe validation rejected",
			slog.String("rule", rule),
			slog.String("db.statement", sql),
			slog.String("error.type", "validation_error"),
		)
		err = fmt.Errorf("validation: %w", err)
		s.auditor.Record(ctx, port.AuditEntry{
			Rule:   rule,
			Target: target,
			SQL:    sql,
			Err:    err,
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementProbeErrors(ctx)
		return nil, err
	}

	start := time.Now()
	rows, err := s.probe.Query(ctx, sql, args...)
	durationMS := time.Since(start).Milliseconds()

	s.inst.RecordProbeDuration(ctx, float64(durationMS))

	s.auditor.Record(ctx, port.AuditEntry{
		Rule:         rule,
		Target:       target,
		SQL:          sql,
		RowsReturned: len(rows),
		DurationMS:   durationMS,
		Err:          err,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementProbeErrors(ctx)
		return nil, err
	}

	s.inst.IncrementProbeCount(ctx)
	span.SetAttributes(attribute.Int("db.response.rows", len(rows)))
	return rows, nil
}
