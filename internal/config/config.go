// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, static assets, rate limiting, CORS policy and observability.
//
// Every validated field carries its environment key in an `env` tag, so a
// failed rule reads "RATE_BURST must be >= 1". Load reports all failures at
// once.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string      `env:"CORS_ALLOWED_METHODS"`
	AllowedHeaders   []string      `env:"CORS_ALLOWED_HEADERS"`
	ExposeHeaders    []string      `env:"CORS_EXPOSE_HEADERS"`
	AllowCredentials bool          `env:"CORS_ALLOW_CREDENTIALS"` // only honored with an explicit origin allowlist
	MaxAge           time.Duration `env:"CORS_MAX_AGE" validate:"gte=0"`
	PolicyFile       string        `env:"CORS_CONFIG_FILE"` // optional YAML file overriding the fields above
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" validate:"gte=0"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool              `env:"OTEL_ENABLED"`
	Endpoint    string            `env:"OTEL_EXPORTER_OTLP_ENDPOINT"` // host:port, e.g. "otel:4317"
	Insecure    bool              `env:"OTEL_EXPORTER_OTLP_INSECURE"` // plaintext gRPC
	Headers     map[string]string `env:"OTEL_EXPORTER_OTLP_HEADERS"`  // "k1=v1,k2=v2"
	Timeout     time.Duration     `env:"OTEL_EXPORTER_OTLP_TIMEOUT" validate:"gt=0"`
	ServiceName string            `env:"OTEL_SERVICE_NAME" validate:"required"`
	SampleRatio float64           `env:"OTEL_TRACES_SAMPLER_ARG" validate:"gte=0,lte=1"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" validate:"required"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" validate:"gt=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"` // graceful drain on SIGTERM
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" validate:"gt=0"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" validate:"gt=0"` // request body cap for the JSON parser
	GinMode           string        `env:"GIN_MODE"`                       // debug|release|test
	AppEnv            string        `env:"APP_ENV" validate:"oneof=development production test"`
	TrustedProxies    []string      `env:"TRUSTED_PROXIES"` // nil trusts every proxy

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal panic"`
	LogPretty      bool   `env:"LOG_PRETTY"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED"`
	APIBasePath    string `env:"API_BASE_PATH" validate:"startswith=/"`

	// Static assets
	PublicDir string `env:"PUBLIC_DIR"` // served for unmatched GET/HEAD requests; holds favicon.png

	// Rate limiting
	RateRPS   float64 `env:"RATE_RPS" validate:"gte=0"`   // tokens per second
	RateBurst int     `env:"RATE_BURST" validate:"gte=1"` // bucket size

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// ExposeStack reports whether error responses may carry stack traces.
func (c Config) ExposeStack() bool { return c.AppEnv != "production" }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              strings.TrimSpace(getenv("PORT", "4242")),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		AppEnv:            strings.ToLower(getenv("APP_ENV", "development")),
		TrustedProxies:    splitCSV(getenv("TRUSTED_PROXIES", "")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Static assets
		PublicDir: getenv("PUBLIC_DIR", "public"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins:   splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   splitCSV(getenv("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")),
			AllowedHeaders:   splitCSV(getenv("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Accept,Authorization,X-User-ID")),
			ExposeHeaders:    splitCSV(getenv("CORS_EXPOSE_HEADERS", "X-Request-ID,Content-Length")),
			AllowCredentials: getbool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getdur("CORS_MAX_AGE", 12*time.Hour),
			PolicyFile:       getenv("CORS_CONFIG_FILE", ""),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			Timeout:     getdur("OTEL_EXPORTER_OTLP_TIMEOUT", 10*time.Second),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-api-scaffold"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	headers, err := splitKV(getenv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	if err != nil {
		return cfg, fmt.Errorf("OTEL_EXPORTER_OTLP_HEADERS: %w", err)
	}
	cfg.OTEL.Headers = headers

	if cfg.CORS.PolicyFile != "" {
		if err := applyCORSPolicyFile(&cfg.CORS, cfg.CORS.PolicyFile); err != nil {
			return cfg, err
		}
	}

	cfg.normalize()
	return cfg, cfg.validate()
}

// normalize folds accepted aliases into canonical values.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	switch c.AppEnv {
	case "dev":
		c.AppEnv = "development"
	case "prod":
		c.AppEnv = "production"
	}
}

var (
	rulesOnce sync.Once
	rules     *validator.Validate
)

// ruleSet names fields by their env tag so errors point at the variable to fix.
func ruleSet() *validator.Validate {
	rulesOnce.Do(func() {
		rules = validator.New(validator.WithRequiredStructEnabled())
		rules.RegisterTagNameFunc(func(f reflect.StructField) string {
			if key := f.Tag.Get("env"); key != "" {
				return key
			}
			return f.Name
		})
	})
	return rules
}

// validate checks c against its struct rules and joins every failure.
func (c Config) validate() error {
	err := ruleSet().Struct(c)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	errs := make([]error, 0, len(ve))
	for _, fe := range ve {
		errs = append(errs, fmt.Errorf("%s %s", fe.Field(), describeRule(fe)))
	}
	return errors.Join(errs...)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "startswith":
		return "must start with " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "failed rule " + fe.Tag()
	}
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitKV parses "k1=v1,k2=v2". Blank entries are skipped; an entry without
// '=' or with an empty key is an error.
func splitKV(s string) (map[string]string, error) {
	items := splitCSV(s)
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, it := range items {
		k, v, ok := strings.Cut(it, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("malformed entry %q", it)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
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
