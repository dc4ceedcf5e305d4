package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/adapter/mcp"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/policy"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/postgres"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/render"
	"github.com/guillermoBallester/schemadvisor/internal/adapter/ws"
	"github.com/guillermoBallester/schemadvisor/internal/audit"
	"github.com/guillermoBallester/schemadvisor/internal/config"
	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"github.com/guillermoBallester/schemadvisor/internal/core/port"
	"github.com/guillermoBallester/schemadvisor/internal/core/service"
	"github.com/guillermoBallester/schemadvisor/internal/telemetry"
	"github.com/lmittmann/tint"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemadvisor",
		Short: "Read-only schema and security advisor for PostgreSQL",
		Long: "schemadvisor inspects a live PostgreSQL database and reports findings about\n" +
			"column types, indexes, foreign keys, roles and security settings.\n\n" +
			"In cli mode it prints one report and exits. In server mode it serves\n" +
			"WebSocket (/ws) and MCP (/mcp) clients. In stdio mode it speaks MCP on stdin/stdout.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := overridesFromFlags(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load(overrides)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}
	registerFlags(cmd)
	return cmd
}

func newLogger(cfg *config.Config) *slog.Logger {
	// Logs go to stderr: stdout carries the report or the MCP stdio stream.
	if cfg.Mode == config.ModeCLI {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor || !isTerminal(os.Stderr),
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := newLogger(cfg)

	logger.Info("starting schemadvisor",
		slog.String("version", version),
		slog.String("mode", cfg.Mode),
		slog.String("database", redactDSN(cfg.DatabaseURL)),
		slog.Int("concurrency", cfg.Concurrency),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
	)
	for _, w := range cfg.Warnings {
		logger.Warn("config", slog.String("warning", w))
	}

	// inst and tools stay nil without telemetry; the services fall back to noops.
	var (
		tracer trace.Tracer
		inst   port.Instrumentation
		tools  mcp.ToolRecorder
	)
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, telemetry.Settings{
			ServiceName: "schemadvisor",
			Version:     version,
			Mode:        cfg.Mode,
			DatabaseURL: cfg.DatabaseURL,
		})
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
			}
		}()
		instruments := provider.Instruments()
		tracer = provider.Tracer()
		inst = instruments
		tools = instruments
	} else {
		tracer = telemetry.NoopTracer()
	}

	var auditor port.ProbeAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fa, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer func() { _ = fa.Close() }()
		auditor = fa
		logger.Info("audit log enabled", slog.String("path", cfg.AuditLog))
	}

	var pol *policy.Policy
	if cfg.PolicyFile != "" {
		p, err := policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		pol = p
		logger.Info("policy loaded", slog.String("file", cfg.PolicyFile))
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns:        cfg.PoolMaxConns,
		MinConns:        cfg.PoolMinConns,
		MaxConnLifetime: cfg.PoolMaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	logger.Info("database pool connected", slog.String("db.system", "postgresql"))

	// Every rule query goes through the guarded, audited probe service.
	probe := service.NewProbeService(
		domain.NewReadOnlyGuard(),
		postgres.NewProbe(pool, cfg.QueryTimeout),
		auditor, logger, tracer, inst,
	)
	discoverer := policy.NewPolicyDiscoverer(postgres.NewDiscoverer(probe, cfg.Schemas), pol)
	advisor := service.NewAdvisorService(discoverer, probe, policy.Catalog(pol), cfg.Concurrency, logger, tracer, inst)

	switch cfg.Mode {
	case config.ModeServer:
		return runServer(ctx, cfg, advisor, logger, tracer, tools)
	case config.ModeStdio:
		mcpServer := mcp.NewServer(version, advisor, cfg.Thresholds, logger, tracer, tools)
		logger.Info("serving MCP over stdio")
		if err := mcpserver.NewStdioServer(mcpServer).Listen(ctx, os.Stdin, os.Stdout); err != nil {
			return fmt.Errorf("stdio server: %w", err)
		}
		logger.Info("shutdown complete")
		return nil
	default:
		return runOnce(ctx, cfg, advisor, stdout, !cfg.NoColor && isTerminal(os.Stdout))
	}
}

// runOnce runs a single session and writes the report. Error messages
// inside the report do not fail the run; only a session failure does.
func runOnce(ctx context.Context, cfg *config.Config, analyzer mcp.Analyzer, stdout io.Writer, useColor bool) error {
	report, err := analyzer.Analyze(ctx, cfg.Thresholds)
	if err != nil {
		if errors.Is(err, domain.ErrDiscovery) {
			return err
		}
		return fmt.Errorf("analysis: %w", err)
	}
	return writeReport(stdout, cfg.Output, report, useColor)
}

func writeReport(w io.Writer, output string, report *domain.Report, useColor bool) error {
	switch output {
	case config.OutputJSON:
		return render.JSON(w, report.Results)
	case config.OutputYAML:
		return render.YAML(w, report.Results)
	default:
		p := render.NewPrinter(w, useColor)
		if err := p.Results(report.Results); err != nil {
			return err
		}
		return p.Summary(report)
	}
}

func runServer(ctx context.Context, cfg *config.Config, advisor *service.AdvisorService, logger *slog.Logger, tracer trace.Tracer, tools mcp.ToolRecorder) error {
	mcpServer := mcp.NewServer(version, advisor, cfg.Thresholds, logger, tracer, tools)

	var mcpHandler http.Handler = mcpserver.NewStreamableHTTPServer(mcpServer)
	if cfg.HTTPBearerToken != "" {
		mcpHandler = bearerAuthMiddleware(mcpHandler, cfg.HTTPBearerToken)
	} else {
		logger.Warn("no bearer token configured: /mcp is unauthenticated")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("/ws", ws.NewHandler(advisor, cfg.Thresholds, logger))
	mux.Handle("/mcp", mcpHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           recoveryMiddleware(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := serveHTTP(ctx, srv, logger); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
