package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// AdvisorService drives advisory sessions: it discovers tables, fans every
// registered rule out over them and merges the results by title.
type AdvisorService struct {
	discoverer  port.TableDiscoverer
	probe       port.SchemaProbe
	rules       []port.Rule
	concurrency int
	logger      *slog.Logger
	tracer      trace.Tracer
	inst        port.Instrumentation
}

func NewAdvisorService(discoverer port.TableDiscoverer, probe port.SchemaProbe, rules []port.Rule, concurrency int, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *AdvisorService {
	if concurrency < 1 {
		concurrency = 1
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &AdvisorService{
		discoverer:  discoverer,
		probe:       probe,
		rules:       rules,
		concurrency: concurrency,
		logger:      logger,
		tracer:      tracer,
		inst:        inst,
	}
}

// Rules returns the registered rules in registration order.
func (s *AdvisorService) Rules() []port.Rule {
	return s.rules
}

// Analyze runs a fresh session with the given thresholds.
func (s *AdvisorService) Analyze(ctx context.Context, th domain.Thresholds) (*domain.Report, error) {
	return s.NewSession(th).Run(ctx)
}

// NewSession prepares a session. Thresholds are fixed for its lifetime.
func (s *AdvisorService) NewSession(th domain.Thresholds) *Session {
	return &Session{svc: s, thresholds: th, state: domain.SessionIdle}
}

// Session is a single run of the engine. A Session is not reusable.
type Session struct {
	svc        *AdvisorService
	thresholds domain.Thresholds

	mu    sync.Mutex
	state domain.SessionState
}

// State returns the session's current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(ctx context.Context, state domain.SessionState) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.svc.logger.DebugContext(ctx, "session state",
		slog.String("from", string(prev)),
		slog.String("to", string(state)),
	)
}

type invocation struct {
	rule   port.Rule
	target domain.Target
}

// Run executes the session. The only returned errors are a failed table
// discovery (wrapping domain.ErrDiscovery) and cancellation of ctx; every
// other failure is reported inside the results.
func (s *Session) Run(ctx context.Context) (*domain.Report, error) {
	if st := s.State(); st != domain.SessionIdle {
		return nil, fmt.Errorf("session already %s", st)
	}

	ctx, span := s.svc.tracer.Start(ctx, "AdvisorService.Run")
	defer span.End()
	start := time.Now()

	s.setState(ctx, domain.SessionDiscovering)
	targets, err := s.svc.discoverer.ListTables(WithRule(ctx, "discovery"))
	if err != nil {
		s.setState(ctx, domain.SessionFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", domain.ErrDiscovery, err)
	}
	span.SetAttributes(attribute.Int("schemadvisor.tables", len(targets)))

	s.setState(ctx, domain.SessionRunning)
	plan := s.plan(targets)
	raw := make([]domain.Result, len(plan))

	g := new(errgroup.Group)
	g.SetLimit(s.svc.concurrency)
	for i, inv := range plan {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			raw[i] = s.invoke(ctx, inv)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.setState(ctx, domain.SessionFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("session cancelled: %w", err)
	}

	s.setState(ctx, domain.SessionAggregating)
	merged := domain.Merge(raw)

	elapsed := time.Since(start)
	s.svc.inst.RecordSessionDuration(ctx, float64(elapsed.Milliseconds()))
	s.setState(ctx, domain.SessionComplete)

	return &domain.Report{
		Targets:     targets,
		Results:     merged,
		Invocations: len(plan),
		Duration:    elapsed,
	}, nil
}

// plan lays out invocations in registration order: every table-scoped rule
// per table in discovery order, then every database-scoped rule once.
func (s *Session) plan(targets []domain.Target) []invocation {
	var tableRules, dbRules []port.Rule
	for _, r := range s.svc.rules {
		if r.Scope() == port.ScopeTable {
			tableRules = append(tableRules, r)
		} else {
			dbRules = append(dbRules, r)
		}
	}

	plan := make([]invocation, 0, len(targets)*len(tableRules)+len(dbRules))
	for _, t := range targets {
		for _, r := range tableRules {
			plan = append(plan, invocation{rule: r, target: t})
		}
	}
	for _, r := range dbRules {
		plan = append(plan, invocation{rule: r})
	}
	return plan
}

// invoke runs one rule against one target. It always returns a Result
// titled after the rule with at least one message.
func (s *Session) invoke(ctx context.Context, inv invocation) (res domain.Result) {
	name := inv.rule.Name()
	ctx = WithTarget(WithRule(ctx, name), inv.target.String())
	ctx, span := s.svc.tracer.Start(ctx, "Rule."+name,
		trace.WithAttributes(
			attribute.String("rule", name),
			attribute.String("target", inv.target.String()),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			s.svc.logger.ErrorContext(ctx, "rule panicked",
				slog.String("rule", name),
				slog.String("target", inv.target.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			span.RecordError(err)
			res = domain.Result{
				Title:    inv.rule.Title(),
				Messages: []domain.Message{domain.Failure(err, "Rule '%s' failed on %s", name, describe(inv.target))},
			}
		}

		res.Title = inv.rule.Title()
		if len(res.Messages) == 0 {
			res.Messages = []domain.Message{domain.NoIssues(inv.target)}
		}
		if n := res.Count(domain.SeverityError); n > 0 {
			span.SetStatus(codes.Error, fmt.Sprintf("%d failed steps", n))
		}

		ms := float64(time.Since(start).Milliseconds())
		s.svc.inst.RecordRuleDuration(ctx, name, ms)
		s.svc.logger.DebugContext(ctx, "rule finished",
			slog.String("rule", name),
			slog.String("target", inv.target.String()),
			slog.Int("messages", len(res.Messages)),
			slog.Float64("duration_ms", ms),
		)
		span.End()
	}()

	return inv.rule.Probe(ctx, s.svc.probe, inv.target, s.thresholds)
}

func describe(t domain.Target) string {
	if t.IsDatabase() {
		return "the database"
	}
	return fmt.Sprintf("table '%s'", t.Display())
}
