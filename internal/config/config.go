// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server and gatectl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// MigrateOnStart applies pending goose migrations before serving.
	MigrateOnStart bool

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFormat is "json" (default) or "text".
	LogFormat string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes bounds request bodies, photos included. Defaults to 10 MiB.
	MaxBodyBytes int64

	MetricsPath string

	Engine   EngineConfig
	Notify   NotifyConfig
	Storage  StorageConfig
	RedisURL string // empty keeps sequences in Postgres
}

// EngineConfig tunes the visit lifecycle.
type EngineConfig struct {
	// CodePrefix starts every booking code and queue number, e.g. "SOC".
	CodePrefix string

	// Location decides where calendar days and months begin for queue numbers
	// and booking codes. Defaults to Asia/Jakarta.
	Location *time.Location

	OverstayThreshold time.Duration
	AllowExitOverride bool
	GateCacheTTL      time.Duration
}

// NotifyConfig configures the driver messaging gateway.
type NotifyConfig struct {
	// WhatsAppURL is the gateway endpoint. Empty logs messages instead of sending.
	WhatsAppURL   string
	WhatsAppToken string
	Timeout       time.Duration
	Concurrency   int64
}

// StorageConfig configures the S3-compatible evidence bucket.
// An empty Bucket disables uploads; files degrade to a placeholder.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether a bucket is configured.
func (s StorageConfig) Enabled() bool { return s.Bucket != "" }

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is read first when present; variables
// already set in the environment win.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	p := &parser{}
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "json")),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes:   p.int64("MAX_BODY_BYTES", 10<<20),
		MigrateOnStart: p.bool("MIGRATE_ON_START", false),
		MetricsPath:    getEnv("METRICS_PATH", "/metrics"),
		RedisURL:       os.Getenv("REDIS_URL"),
		Engine: EngineConfig{
			CodePrefix:        strings.ToUpper(getEnv("CODE_PREFIX", "SOC")),
			Location:          p.location("TIMEZONE", "Asia/Jakarta"),
			OverstayThreshold: p.duration("OVERSTAY_THRESHOLD", 4*time.Hour),
			AllowExitOverride: p.bool("ALLOW_EXIT_OVERRIDE", true),
			GateCacheTTL:      p.duration("GATE_CACHE_TTL", 10*time.Second),
		},
		Notify: NotifyConfig{
			WhatsAppURL:   os.Getenv("WHATSAPP_URL"),
			WhatsAppToken: os.Getenv("WHATSAPP_TOKEN"),
			Timeout:       p.duration("NOTIFY_TIMEOUT", 10*time.Second),
			Concurrency:   p.int64("NOTIFY_CONCURRENCY", 8),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "auto"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		p.fail("LOG_FORMAT", cfg.LogFormat)
	}
	if cfg.Notify.Concurrency < 1 {
		p.fail("NOTIFY_CONCURRENCY", strconv.FormatInt(cfg.Notify.Concurrency, 10))
	}
	if cfg.Notify.Timeout <= 0 {
		p.fail("NOTIFY_TIMEOUT", cfg.Notify.Timeout.String())
	}
	if cfg.Engine.OverstayThreshold <= 0 {
		p.fail("OVERSTAY_THRESHOLD", cfg.Engine.OverstayThreshold.String())
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parser collects every malformed variable so one error names them all.
type parser struct {
	invalid []string
}

func (p *parser) fail(key, value string) {
	p.invalid = append(p.invalid, fmt.Sprintf("%s=%q", key, value))
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return d
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return b
}

func (p *parser) int64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(key, raw)
		return fallback
	}
	return n
}

func (p *parser) location(key, fallback string) *time.Location {
	name := getEnv(key, fallback)
	loc, err := time.LoadLocation(name)
	if err != nil {
		p.fail(key, name)
		return time.UTC
	}
	return loc
}
