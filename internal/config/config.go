// Package config provides application configuration loaded from the
// environment (and an optional .env file) with defaults and validation. It
// centralizes server timeouts, logging, database paths, rate limiting,
// observability, and the response layer settings.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"go-graceful-response"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"` // [0..1]
}

// ResponseConfig drives envelope rendering and error translation.
type ResponseConfig struct {
	Style          domain.Style `env:"RESPONSE_STYLE" envDefault:"flat"` // flat|nested
	SuccessCode    string       `env:"SUCCESS_CODE" envDefault:"OK"`
	SuccessMessage string       `env:"SUCCESS_MESSAGE" envDefault:"ok"`

	// DefaultErrorStatus is sent when a mapping carries no status.
	DefaultErrorStatus int `env:"DEFAULT_ERROR_STATUS" envDefault:"500"`

	FallbackCode            string `env:"FALLBACK_CODE" envDefault:"INTERNAL"`
	FallbackMessage         string `env:"FALLBACK_MESSAGE" envDefault:"Unexpected error"`
	FallbackUseErrorMessage bool   `env:"FALLBACK_USE_ERROR_MESSAGE" envDefault:"false"`

	PrintErrors  bool   `env:"PRINT_ERRORS" envDefault:"true"` // log every intercepted error
	MappingsFile string `env:"ERROR_MAPPINGS_FILE"`             // yaml; empty = built-in mappings

	// Requests matching these patterns are written raw, without envelopes.
	ExcludeURLs []string `env:"EXCLUDE_URLS" envSeparator:","`
	// Handler return types (Go type names, e.g. "[]uint8") written raw.
	ExcludeReturnTypes []string `env:"EXCLUDE_RETURN_TYPES" envSeparator:"," envDefault:"[]uint8"`

	// Predicate chain seeds.
	IgnoreErrorMessages   []string `env:"IGNORE_ERROR_MESSAGES" envSeparator:","`
	IgnoreErrorCategories []string `env:"IGNORE_ERROR_CATEGORIES" envSeparator:","`

	// Incident log. Client-branch errors (404, 405, validation...) are only
	// recorded when RecordClientIncidents is set. Inserts run on a background
	// writer; IncidentQueue bounds its backlog.
	RecordIncidents       bool `env:"RECORD_INCIDENTS" envDefault:"true"`
	RecordClientIncidents bool `env:"RECORD_CLIENT_INCIDENTS" envDefault:"false"`
	IncidentQueue         int  `env:"INCIDENT_QUEUE" envDefault:"256"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"20s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	GinMode           string        `env:"GIN_MODE" envDefault:"release"` // debug|release|test

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error|fatal|panic
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH" envDefault:"/api/v1"`

	// App
	DBPath string `env:"DB_PATH" envDefault:"app.db"`

	// Rate limiting
	RateRPS   float64 `env:"RATE_RPS" envDefault:"5"`   // tokens per second (>= 0)
	RateBurst int     `env:"RATE_BURST" envDefault:"10"` // bucket size (>= 1)

	CORS     CORSConfig
	OTEL     OTELConfig
	Response ResponseConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads an optional .env file, then environment variables, applies
// defaults, normalizes values, and validates the result. Variables already
// present in the environment win over the .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error getting env configs: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.CORS.AllowedOrigins = compact(cfg.CORS.AllowedOrigins)
	r := &cfg.Response
	r.ExcludeURLs = compact(r.ExcludeURLs)
	r.ExcludeReturnTypes = compact(r.ExcludeReturnTypes)
	r.IgnoreErrorMessages = compact(r.IgnoreErrorMessages)
	r.IgnoreErrorCategories = compact(r.IgnoreErrorCategories)

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if s := cfg.Response.DefaultErrorStatus; s < 100 || s > 599 || http.StatusText(s) == "" {
		return errors.New("DEFAULT_ERROR_STATUS must be a known HTTP status")
	}
	if strings.TrimSpace(cfg.Response.SuccessCode) == "" {
		return errors.New("SUCCESS_CODE must not be empty")
	}
	if strings.TrimSpace(cfg.Response.FallbackCode) == "" {
		return errors.New("FALLBACK_CODE must not be empty")
	}
	if cfg.Response.IncidentQueue < 1 {
		return errors.New("INCIDENT_QUEUE must be >= 1")
	}
	return nil
}

// compact trims entries and drops empty ones.
func compact(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
