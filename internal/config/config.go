// Package config loads runtime configuration for the server and its
// stores from the process environment, with optional .env support.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// JWTSecret is the HS256 shared secret for bearer token auth.
	// Empty disables JWT verification.
	JWTSecret string

	APIKeyEnabled bool   // accept API keys (default true)
	APIKeyHeader  string // header carrying the key (default X-API-Key)

	// NameClaim selects the JWT claim used as the principal name.
	// Defaults to "sub".
	NameClaim string
}

// Config is the full runtime configuration. LoadFromEnv fills zero
// values with defaults.
type Config struct {
	// Object storage credentials for corpus export. Each pointer is
	// nil when the corresponding variable was not set.
	S3KeyID    *string
	S3Secret   *string
	S3Endpoint *string
	S3Region   *string
	S3Bucket   *string

	MetaDBPath        string // SQLite control-plane database file
	SinkDBPath        string // DuckDB sink file, "" keeps records in memory
	TemplatesDir      string // declarative template YAML loaded at boot
	ExportDir         string // local corpus export directory
	ListenAddr        string // HTTP listen address
	TLSCertFile       string
	TLSKeyFile        string
	AllowInsecureHTTP bool // permit a plain HTTP listener in production
	LogLevel          string
	Env               string // "development" or "production"

	GenerationWorkers int // generation worker pool size

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string

	Auth AuthConfig

	// Warnings are non-fatal findings from loading. The caller logs
	// them once the logger exists.
	Warnings []string
}

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// SlogLevel converts LogLevel into an slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	if lvl, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HasS3Config reports whether enough S3 settings are present to export
// to object storage. The endpoint is optional; without it the AWS SDK
// derives one from the region.
func (c *Config) HasS3Config() bool {
	return c.S3KeyID != nil && c.S3Secret != nil &&
		c.S3Region != nil && c.S3Bucket != nil
}

// LoadFromEnv builds a Config from environment variables, applies
// defaults, and rejects insecure production setups.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		S3KeyID:    optionalEnv("KEY_ID"),
		S3Secret:   optionalEnv("SECRET"),
		S3Endpoint: optionalEnv("ENDPOINT"),
		S3Region:   optionalEnv("REGION"),
		S3Bucket:   optionalEnv("BUCKET"),

		MetaDBPath:        stringEnv("META_DB_PATH", "synthgen_meta.sqlite"),
		SinkDBPath:        os.Getenv("SINK_DB_PATH"),
		TemplatesDir:      os.Getenv("TEMPLATES_DIR"),
		ExportDir:         stringEnv("EXPORT_DIR", "exports"),
		ListenAddr:        stringEnv("LISTEN_ADDR", ":8080"),
		TLSCertFile:       os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:        os.Getenv("TLS_KEY_FILE"),
		AllowInsecureHTTP: strings.EqualFold(os.Getenv("ALLOW_INSECURE_HTTP"), "true"),
		LogLevel:          stringEnv("LOG_LEVEL", "info"),
		Env:               os.Getenv("ENV"),

		GenerationWorkers: intEnv("GENERATION_WORKERS", 8),
		RateLimitRPS:      floatEnv("RATE_LIMIT_RPS", 100),
		RateLimitBurst:    intEnv("RATE_LIMIT_BURST", 200),

		CORSAllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS"),
		Auth:               authFromEnv(),
	}

	if cfg.GenerationWorkers < 1 {
		cfg.GenerationWorkers = 8
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set; bearer token auth is disabled")
	}
	if err := cfg.checkProduction(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func authFromEnv() AuthConfig {
	return AuthConfig{
		JWTSecret:     os.Getenv("JWT_SECRET"),
		APIKeyEnabled: os.Getenv("AUTH_API_KEY_ENABLED") != "false",
		APIKeyHeader:  stringEnv("AUTH_API_KEY_HEADER", "X-API-Key"),
		NameClaim:     stringEnv("AUTH_NAME_CLAIM", "sub"),
	}
}

// checkProduction rejects configurations that are unsafe outside of
// development. Errors here are fatal at startup.
func (c *Config) checkProduction() error {
	if !c.IsProduction() {
		return nil
	}
	if c.Auth.JWTSecret == "" && !c.Auth.APIKeyEnabled {
		return fmt.Errorf("JWT_SECRET or API key auth must be configured in production (ENV=production)")
	}
	if len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*" {
		return fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
	}
	if c.TLSCertFile == "" && !c.AllowInsecureHTTP {
		return fmt.Errorf("TLS_CERT_FILE/TLS_KEY_FILE must be set in production unless ALLOW_INSECURE_HTTP=true")
	}
	return nil
}

// optionalEnv returns a pointer to the variable's value, or nil when
// it is unset or empty.
func optionalEnv(key string) *string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return &v
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f == 0 {
		return fallback
	}
	return f
}

// listEnv splits a comma-separated variable, trimming whitespace and
// dropping empty entries.
func listEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadDotEnv merges a .env file into the process environment. Real
// environment variables win over file values; a missing file is not
// an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path comes from the caller
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := parseEnvLine(sc.Text())
		if !ok || os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setenv %s: %w", key, err)
		}
	}
	return sc.Err()
}

// parseEnvLine splits one KEY=VALUE line. Blank lines and # comments
// report ok=false.
func parseEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), unquote(strings.TrimSpace(value)), true
}

// unquote strips one layer of matching single or double quotes.
func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	if head, tail := v[0], v[len(v)-1]; head == tail && (head == '"' || head == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}
