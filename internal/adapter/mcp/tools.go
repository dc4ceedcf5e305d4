package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fortio.org/safecast"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/render"
	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server metadata
const serverName = "schemadvisor"

// Tool descriptions
const (
	descAnalyze = "Run every advisory rule against the connected PostgreSQL database and return the findings " +
		"grouped by rule title. Each finding has a type: info (current state, no action needed), " +
		"warning (a schema or configuration change is recommended) or error (the check itself failed). " +
		"Covers column types, data lengths, enum candidates, numeric precision, unused columns, foreign keys, " +
		"index usage, roles and privileges, password and audit settings, sensitive column names and encryption. " +
		"The analysis is read-only."

	descFormat = "Output format: \"json\" (default) returns [{title, messages:[{text, type}]}]; " +
		"\"text\" returns a severity-prefixed listing."

	descEnumThreshold        = "Override the enum-candidate distinct-value limit for this run (inclusive)."
	descUnusedIndexThreshold = "Override the scan count below which an index is reported as unused."
	descUnusedColumnPercent  = "Override the non-null percentage below which a column is reported as rarely used."

	descListRules = "List the advisory rules in the order they run, with their scope (table or database)."
)

// Analyzer runs advisory sessions.
type Analyzer interface {
	Analyze(ctx context.Context, th domain.Thresholds) (*domain.Report, error)
	Rules() []port.Rule
}

// ruleInfo is the list_rules payload entry.
type ruleInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Scope string `json:"scope"`
}

func RegisterTools(s *server.MCPServer, analyzer Analyzer, base domain.Thresholds, logger *slog.Logger) {
	s.AddTool(
		mcp.NewTool("analyze_database",
			mcp.WithDescription(descAnalyze),
			mcp.WithString("format",
				mcp.Description(descFormat),
				mcp.Enum("json", "text"),
			),
			mcp.WithNumber("enum_threshold", mcp.Description(descEnumThreshold)),
			mcp.WithNumber("unused_index_threshold", mcp.Description(descUnusedIndexThreshold)),
			mcp.WithNumber("unused_column_percentage_threshold", mcp.Description(descUnusedColumnPercent)),
		),
		analyzeHandler(analyzer, base, logger),
	)

	s.AddTool(
		mcp.NewTool("list_rules",
			mcp.WithDescription(descListRules),
		),
		listRulesHandler(analyzer),
	)
}

func analyzeHandler(analyzer Analyzer, base domain.Thresholds, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		format, _ := args["format"].(string)
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "text" {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q: must be json or text", format)), nil
		}

		th, err := thresholdsFromArgs(base, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		report, err := analyzer.Analyze(ctx, th)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "analysis")), nil
		}

		var b strings.Builder
		if format == "text" {
			p := render.NewPrinter(&b, false)
			if err := p.Results(report.Results); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to render results: %v", err)), nil
			}
			_ = p.Summary(report)
			return mcp.NewToolResultText(b.String()), nil
		}

		data, err := json.Marshal(render.View(report.Results))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func listRulesHandler(analyzer Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rules := analyzer.Rules()
		out := make([]ruleInfo, len(rules))
		for i, r := range rules {
			out[i] = ruleInfo{Name: r.Name(), Title: r.Title(), Scope: r.Scope().String()}
		}

		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// thresholdsFromArgs applies per-call overrides. JSON numbers arrive as float64.
func thresholdsFromArgs(base domain.Thresholds, args map[string]any) (domain.Thresholds, error) {
	th := base
	if v, ok := args["enum_threshold"].(float64); ok {
		n, err := safecast.Convert[int](v)
		if err != nil || n < 1 || n > domain.MaxEnumCandidates {
			return th, fmt.Errorf("enum_threshold must be a positive integer up to %d", domain.MaxEnumCandidates)
		}
		th.EnumCandidateMax = n
	}
	if v, ok := args["unused_index_threshold"].(float64); ok {
		n, err := safecast.Convert[int64](v)
		if err != nil || n < 1 {
			return th, fmt.Errorf("unused_index_threshold must be a positive integer")
		}
		th.UnusedIndexScans = n
	}
	if v, ok := args["unused_column_percentage_threshold"].(float64); ok {
		if v <= 0 || v > 100 {
			return th, fmt.Errorf("unused_column_percentage_threshold must be in (0, 100]")
		}
		th.UnusedColumnPercent = v
	}
	return th, nil
}

// sanitizeError maps a session failure to a client-safe message. Database
// errors keep their server message; anything else is logged and hidden.
func sanitizeError(logger *slog.Logger, err error, op string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return op + " timed out"
	}
	if errors.Is(err, context.Canceled) {
		return op + " cancelled"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "57014" {
			return op + " timed out"
		}
		if errors.Is(err, domain.ErrDiscovery) {
			return fmt.Sprintf("%s: %s", domain.ErrDiscovery, pgErr.Message)
		}
		return fmt.Sprintf("%s failed: %s", op, pgErr.Message)
	}

	logger.Error(op+" failed", slog.String("error", err.Error()))
	if errors.Is(err, domain.ErrDiscovery) {
		return domain.ErrDiscovery.Error() + ": check server logs"
	}
	return "internal error during " + op + ": check server logs"
}
