package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
)

// Run modes.
const (
	ModeCLI    = "cli"
	ModeServer = "server"
	ModeStdio  = "stdio"
)

// Report output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type Config struct {
	// Database connection.
	DatabaseURL  string
	QueryTimeout time.Duration

	// Schema filtering.
	Schemas    []string // empty means all non-system schemas
	PolicyFile string   // optional path to policy YAML

	// Logging.
	LogLevel slog.Level

	// Mode and transport.
	Mode            string // "cli" (default), "server" or "stdio"
	HTTPAddr        string // listen address in server mode (default ":3000")
	HTTPBearerToken string // guards /mcp when set

	// Report output (cli mode).
	Output  string // "text" (default), "json" or "yaml"
	NoColor bool

	// Engine.
	Concurrency    int // rule invocations in flight; defaults to PoolMaxConns
	ThresholdsFile string
	Thresholds     domain.Thresholds

	// Warnings collects non-fatal resolution problems (unparsable thresholds).
	Warnings []string

	// Connection pool.
	PoolMaxConns        int32         // default: 5
	PoolMinConns        int32         // default: 1
	PoolMaxConnLifetime time.Duration // default: 30m

	// Observability.
	OTelEnabled bool
	AuditLog    string // path to NDJSON probe audit log
}

// Overrides holds CLI flag values that override environment variables.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	DatabaseURL     *string
	DBHost          *string
	DBPort          *int
	DBUser          *string
	DBPassword      *string
	DBName          *string
	LogLevel        *string
	QueryTimeout    *time.Duration
	Schemas         []string
	PolicyFile      *string
	Mode            *string
	HTTPAddr        *string
	HTTPBearerToken *string
	Output          *string
	Concurrency     *int
	ThresholdsFile  *string
	OTelEnabled     bool
	NoColor         bool
	AuditLog        string

	// Threshold overrides.
	EnumThreshold        *int
	UnusedIndexThreshold *int64
	UnusedColumnPercent  *float64

	// Connection pool overrides.
	PoolMaxConns        *int32
	PoolMinConns        *int32
	PoolMaxConnLifetime *time.Duration
}

// connParts are the DB_* pieces used when DATABASE_URL is not given.
type connParts struct {
	host, user, password, name, sslmode string
	port                                int
}

// Load builds a Config from environment variables, then applies CLI overrides,
// then resolves thresholds and validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()
	parts := connParts{port: 5432, sslmode: "prefer"}

	if err := loadEnvVars(cfg, &parts); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, &parts, overrides); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" && parts.host != "" {
		cfg.DatabaseURL = parts.url()
	}

	th, warnings, err := ResolveThresholds(cfg.ThresholdsFile)
	if err != nil {
		return nil, err
	}
	cfg.Thresholds = th
	cfg.Warnings = warnings
	if err := applyThresholdOverrides(&cfg.Thresholds, overrides); err != nil {
		return nil, err
	}

	if cfg.Concurrency == 0 {
		cfg.Concurrency = int(cfg.PoolMaxConns)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		QueryTimeout:        10 * time.Second,
		Mode:                ModeCLI,
		HTTPAddr:            ":3000",
		Output:              OutputText,
		PoolMaxConns:        5,
		PoolMinConns:        1,
		PoolMaxConnLifetime: 30 * time.Minute,
	}
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config, parts *connParts) error {
	if err := loadConnEnvVars(parts); err != nil {
		return err
	}

	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QUERY_TIMEOUT value %q: %w", v, err)
		}
		cfg.QueryTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("SCHEMAS"); v != "" {
		cfg.Schemas = splitList(v)
	}

	cfg.PolicyFile = os.Getenv("POLICY_FILE")
	cfg.AuditLog = os.Getenv("AUDIT_LOG")
	cfg.ThresholdsFile = os.Getenv("THRESHOLDS_FILE")

	if v := os.Getenv("MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.HTTPBearerToken = os.Getenv("HTTP_BEARER_TOKEN")

	if v := os.Getenv("OUTPUT"); v != "" {
		cfg.Output = v
	}
	// NO_COLOR disables color when present, regardless of value.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColor = true
	}

	if v := os.Getenv("CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid CONCURRENCY value %q: must be a positive integer", v)
		}
		cfg.Concurrency = n
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	return loadPoolEnvVars(cfg)
}

// loadConnEnvVars reads the DB_* connection parts.
func loadConnEnvVars(parts *connParts) error {
	parts.host = os.Getenv("DB_HOST")
	parts.user = os.Getenv("DB_USER")
	parts.password = os.Getenv("DB_PASSWORD")
	parts.name = os.Getenv("DB_NAME")
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		parts.sslmode = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("invalid DB_PORT value %q: must be a port number", v)
		}
		parts.port = n
	}
	return nil
}

// loadPoolEnvVars reads connection pool environment variables.
func loadPoolEnvVars(cfg *Config) error {
	if v := os.Getenv("POOL_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid POOL_MAX_CONNS value %q: must be a positive integer", v)
		}
		cfg.PoolMaxConns = int32(n)
	}
	if v := os.Getenv("POOL_MIN_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid POOL_MIN_CONNS value %q: must be a non-negative integer", v)
		}
		cfg.PoolMinConns = int32(n)
	}
	if v := os.Getenv("POOL_MAX_CONN_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POOL_MAX_CONN_LIFETIME value %q: %w", v, err)
		}
		cfg.PoolMaxConnLifetime = d
	}
	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, parts *connParts, o Overrides) error {
	if o.DatabaseURL != nil {
		cfg.DatabaseURL = *o.DatabaseURL
	}
	applyConnOverrides(parts, o)

	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if o.QueryTimeout != nil {
		cfg.QueryTimeout = *o.QueryTimeout
	}
	if len(o.Schemas) > 0 {
		cfg.Schemas = o.Schemas
	}
	if o.PolicyFile != nil {
		cfg.PolicyFile = *o.PolicyFile
	}
	if o.ThresholdsFile != nil {
		cfg.ThresholdsFile = *o.ThresholdsFile
	}
	if o.Mode != nil {
		cfg.Mode = *o.Mode
	}
	if o.HTTPAddr != nil {
		cfg.HTTPAddr = *o.HTTPAddr
	}
	if o.HTTPBearerToken != nil {
		cfg.HTTPBearerToken = *o.HTTPBearerToken
	}
	if o.Output != nil {
		cfg.Output = *o.Output
	}
	if o.Concurrency != nil {
		if *o.Concurrency <= 0 {
			return fmt.Errorf("invalid --concurrency value: must be a positive integer")
		}
		cfg.Concurrency = *o.Concurrency
	}

	if err := applyPoolOverrides(cfg, o); err != nil {
		return err
	}

	if o.AuditLog != "" {
		cfg.AuditLog = o.AuditLog
	}
	cfg.NoColor = cfg.NoColor || o.NoColor
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

func applyConnOverrides(parts *connParts, o Overrides) {
	if o.DBHost != nil {
		parts.host = *o.DBHost
	}
	if o.DBPort != nil {
		parts.port = *o.DBPort
	}
	if o.DBUser != nil {
		parts.user = *o.DBUser
	}
	if o.DBPassword != nil {
		parts.password = *o.DBPassword
	}
	if o.DBName != nil {
		parts.name = *o.DBName
	}
}

// applyPoolOverrides applies connection pool CLI flag overrides.
func applyPoolOverrides(cfg *Config, o Overrides) error {
	if o.PoolMaxConns != nil {
		if *o.PoolMaxConns <= 0 {
			return fmt.Errorf("invalid --pool-max-conns value: must be a positive integer")
		}
		cfg.PoolMaxConns = *o.PoolMaxConns
	}
	if o.PoolMinConns != nil {
		if *o.PoolMinConns < 0 {
			return fmt.Errorf("invalid --pool-min-conns value: must be a non-negative integer")
		}
		cfg.PoolMinConns = *o.PoolMinConns
	}
	if o.PoolMaxConnLifetime != nil {
		cfg.PoolMaxConnLifetime = *o.PoolMaxConnLifetime
	}
	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required (set via env var or --database-url / --db-host flag)")
	}

	switch cfg.Mode {
	case ModeCLI, ModeServer, ModeStdio:
	default:
		return fmt.Errorf("invalid MODE value %q: must be \"cli\", \"server\" or \"stdio\"", cfg.Mode)
	}

	switch cfg.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid OUTPUT value %q: must be \"text\", \"json\" or \"yaml\"", cfg.Output)
	}

	if cfg.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive, got %s", cfg.QueryTimeout)
	}

	if cfg.PoolMinConns > cfg.PoolMaxConns {
		return fmt.Errorf("POOL_MIN_CONNS (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.PoolMinConns, cfg.PoolMaxConns)
	}

	if cfg.Concurrency > int(cfg.PoolMaxConns) {
		return fmt.Errorf("CONCURRENCY (%d) must not exceed POOL_MAX_CONNS (%d)", cfg.Concurrency, cfg.PoolMaxConns)
	}

	return nil
}

func (p connParts) url() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.host, strconv.Itoa(p.port)),
		Path:   "/" + p.name,
	}
	switch {
	case p.user != "" && p.password != "":
		u.User = url.UserPassword(p.user, p.password)
	case p.user != "":
		u.User = url.User(p.user)
	}
	q := url.Values{}
	q.Set("sslmode", p.sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
