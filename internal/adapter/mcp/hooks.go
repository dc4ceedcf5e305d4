package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ToolRecorder records tool call durations.
type ToolRecorder interface {
	RecordToolDuration(ctx context.Context, tool string, ms float64)
}

// inflight is a tool call between its before and after hooks.
type inflight struct {
	tool  string
	start time.Time
	span  trace.Span
}

type toolCalls struct {
	logger *slog.Logger
	tracer trace.Tracer
	inst   ToolRecorder
	calls  sync.Map // request id -> *inflight
}

// ToolCallHooks logs every tool call with its duration and outcome. When a
// tracer or recorder is given, each call also gets a span and a duration sample.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst ToolRecorder) *server.Hooks {
	tc := &toolCalls{logger: logger, tracer: tracer, inst: inst}

	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(tc.begin)
	hooks.AddAfterCallTool(func(ctx context.Context, id any, _ *mcp.CallToolRequest, result any) {
		var err error
		if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
			err = errors.New(toolErrorText(r))
		}
		tc.end(ctx, id, err)
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, _ any, err error) {
		if method == mcp.MethodToolsCall {
			tc.end(ctx, id, err)
		}
	})
	return hooks
}

func (tc *toolCalls) begin(ctx context.Context, id any, req *mcp.CallToolRequest) {
	call := &inflight{tool: req.Params.Name, start: time.Now()}
	if tc.tracer != nil {
		_, call.span = tc.tracer.Start(ctx, "mcp.tools/call "+call.tool,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", call.tool)),
		)
	}
	tc.calls.Store(id, call)
}

func (tc *toolCalls) end(ctx context.Context, id any, err error) {
	v, ok := tc.calls.LoadAndDelete(id)
	if !ok {
		return
	}
	call := v.(*inflight)
	elapsed := time.Since(call.start)

	attrs := []slog.Attr{
		slog.String("mcp.tool", call.tool),
		slog.Duration("duration", elapsed),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	tc.logger.LogAttrs(ctx, level, "tool call", attrs...)

	if tc.inst != nil {
		tc.inst.RecordToolDuration(ctx, call.tool, float64(elapsed.Milliseconds()))
	}
	if call.span != nil {
		if err != nil {
			call.span.RecordError(err)
			call.span.SetStatus(codes.Error, err.Error())
		}
		call.span.End()
	}
}

func toolErrorText(r *mcp.CallToolResult) string {
	for _, c := range r.Content {
		if t, ok := c.(mcp.TextContent); ok {
			return t.Text
		}
	}
	return "tool returned error"
}
