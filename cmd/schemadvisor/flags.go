package main

import (
	"fmt"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/config"
	"github.com/spf13/cobra"
)

func registerFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Connection
	f.String("database-url", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	f.String("db-host", "", "database host, used when no URL is given")
	f.IntP("db-port", "P", 5432, "database port")
	f.StringP("db-user", "u", "", "database user")
	f.StringP("db-password", "p", "", "database password")
	f.StringP("db-name", "n", "", "database name")
	f.StringSlice("schemas", nil, "schemas to analyze (default: all non-system schemas)")
	f.Duration("query-timeout", 10*time.Second, "timeout for a single probe query")

	// Engine
	f.Int("concurrency", 0, "rule invocations in flight (default: pool max conns)")
	f.String("policy-file", "", "advisory policy YAML file")
	f.String("thresholds-file", "", "thresholds YAML file")
	f.Int("enum-threshold", 0, "enum-candidate distinct-value limit")
	f.Int64("unused-index-threshold", 0, "scan count below which an index is unused")
	f.Float64("unused-column-percentage", 0, "non-null percentage below which a column is rarely used")

	// Mode and output
	f.String("mode", config.ModeCLI, "run mode: cli, server or stdio")
	f.BoolP("server", "s", false, "shorthand for --mode server")
	f.String("http-addr", ":3000", "listen address in server mode")
	f.String("http-bearer-token", "", "bearer token required on /mcp")
	f.StringP("output", "o", config.OutputText, "report format in cli mode: text, json or yaml")
	f.Bool("no-color", false, "disable colored output")

	// Pool
	f.Int32("pool-max-conns", 5, "maximum pool connections")
	f.Int32("pool-min-conns", 1, "minimum idle pool connections")
	f.Duration("pool-max-conn-lifetime", 30*time.Minute, "maximum connection lifetime")

	// Observability
	f.String("log-level", "info", "log level: debug, info, warn or error")
	f.String("audit-log", "", "append an NDJSON line per probe query to this file")
	f.Bool("otel", false, "export traces and metrics over OTLP gRPC")
}

// overridesFromFlags converts explicitly set flags into config overrides.
// Flags left at their defaults do not shadow environment variables.
func overridesFromFlags(cmd *cobra.Command) (config.Overrides, error) {
	f := cmd.Flags()
	var o config.Overrides
	var err error

	str := func(name string) *string {
		if err != nil || !f.Changed(name) {
			return nil
		}
		var v string
		v, err = f.GetString(name)
		return &v
	}
	dur := func(name string) *time.Duration {
		if err != nil || !f.Changed(name) {
			return nil
		}
		var v time.Duration
		v, err = f.GetDuration(name)
		return &v
	}
	i32 := func(name string) *int32 {
		if err != nil || !f.Changed(name) {
			return nil
		}
		var v int32
		v, err = f.GetInt32(name)
		return &v
	}
	integer := func(name string) *int {
		if err != nil || !f.Changed(name) {
			return nil
		}
		var v int
		v, err = f.GetInt(name)
		return &v
	}

	o.DatabaseURL = str("database-url")
	o.DBHost = str("db-host")
	o.DBPort = integer("db-port")
	o.DBUser = str("db-user")
	o.DBPassword = str("db-password")
	o.DBName = str("db-name")
	o.QueryTimeout = dur("query-timeout")
	o.Concurrency = integer("concurrency")
	o.PolicyFile = str("policy-file")
	o.ThresholdsFile = str("thresholds-file")
	o.EnumThreshold = integer("enum-threshold")
	o.Mode = str("mode")
	o.HTTPAddr = str("http-addr")
	o.HTTPBearerToken = str("http-bearer-token")
	o.Output = str("output")
	o.PoolMaxConns = i32("pool-max-conns")
	o.PoolMinConns = i32("pool-min-conns")
	o.PoolMaxConnLifetime = dur("pool-max-conn-lifetime")
	o.LogLevel = str("log-level")
	if err != nil {
		return o, err
	}

	if f.Changed("unused-index-threshold") {
		v, err := f.GetInt64("unused-index-threshold")
		if err != nil {
			return o, err
		}
		o.UnusedIndexThreshold = &v
	}
	if f.Changed("unused-column-percentage") {
		v, err := f.GetFloat64("unused-column-percentage")
		if err != nil {
			return o, err
		}
		o.UnusedColumnPercent = &v
	}
	if f.Changed("schemas") {
		if o.Schemas, err = f.GetStringSlice("schemas"); err != nil {
			return o, err
		}
	}

	server, _ := f.GetBool("server")
	if server {
		if o.Mode != nil && *o.Mode != config.ModeServer {
			return o, fmt.Errorf("--server conflicts with --mode %s", *o.Mode)
		}
		mode := config.ModeServer
		o.Mode = &mode
	}

	o.NoColor, _ = f.GetBool("no-color")
	o.OTelEnabled, _ = f.GetBool("otel")
	o.AuditLog, _ = f.GetString("audit-log")

	return o, nil
}

// parseFlags parses args against a fresh root command.
func parseFlags(args []string) (config.Overrides, error) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags(args); err != nil {
		return config.Overrides{}, err
	}
	return overridesFromFlags(cmd)
}
