// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server, logging,
// storage, signup policy, mail, identity and observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-signup-gate")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SignupConfig holds the signup policy.
type SignupConfig struct {
	IPLimit       int           // SIGNUP_IP_LIMIT, submissions per IP per hour
	EmailLimit    int           // SIGNUP_EMAIL_LIMIT, submissions per email per day
	TokenTTL      time.Duration // SIGNUP_TOKEN_TTL
	NotifyTimeout time.Duration // NOTIFY_TIMEOUT, per background email send
	ReviewURL     string        // ADMIN_REVIEW_URL, base of approve/reject links
	ProductName   string        // PRODUCT_NAME, used in email copy
}

// AdminConfig holds the admin surface settings.
type AdminConfig struct {
	APIKey string   // ADMIN_API_KEY; empty disables the admin routes
	Emails []string // ADMIN_EMAILS, recipients of new-request alerts
}

// RetentionConfig controls the periodic purge.
type RetentionConfig struct {
	Days     int    // RETENTION_DAYS; 0 disables the purge
	Schedule string // RETENTION_SCHEDULE, cron with seconds field
	Timeout  time.Duration
}

// RateStoreConfig selects where submission counters live.
type RateStoreConfig struct {
	Kind     string // RATE_STORE: sql|redis
	RedisURL string // REDIS_URL
}

// EmailConfig selects and configures the mail transport.
type EmailConfig struct {
	Provider       string // EMAIL_PROVIDER: log|sendgrid|smtp
	From           string // EMAIL_FROM
	FromName       string // EMAIL_FROM_NAME
	SendGridAPIKey string // SENDGRID_API_KEY
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
}

// IdentityConfig selects the identity provider.
type IdentityConfig struct {
	Provider        string // IDENTITY_PROVIDER: local|firebase
	ProjectID       string // FIREBASE_PROJECT_ID
	CredentialsFile string // FIREBASE_CREDENTIALS_FILE; ADC when empty
	ContinueURL     string // ACTIVATION_CONTINUE_URL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // drain budget on SIGTERM
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath string // SQLite path

	// Edge rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Signup domain
	Signup    SignupConfig
	Admin     AdminConfig
	Retention RetentionConfig
	RateStore RateStoreConfig
	Email     EmailConfig
	Identity  IdentityConfig

	// Observability
	OTEL OTELConfig
}

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
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 20*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath: getenv("DB_PATH", "signups.db"),

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Signup: SignupConfig{
			IPLimit:       getint("SIGNUP_IP_LIMIT", 5),
			EmailLimit:    getint("SIGNUP_EMAIL_LIMIT", 1),
			TokenTTL:      getdur("SIGNUP_TOKEN_TTL", 168*time.Hour),
			NotifyTimeout: getdur("NOTIFY_TIMEOUT", 15*time.Second),
			ReviewURL:     strings.TrimSpace(getenv("ADMIN_REVIEW_URL", "http://localhost:3000/admin/signups/review")),
			ProductName:   getenv("PRODUCT_NAME", "Signup Gate"),
		},
		Admin: AdminConfig{
			APIKey: getenv("ADMIN_API_KEY", ""),
			Emails: splitCSV(getenv("ADMIN_EMAILS", "")),
		},
		Retention: RetentionConfig{
			Days:     getint("RETENTION_DAYS", 90),
			Schedule: strings.TrimSpace(getenv("RETENTION_SCHEDULE", "0 30 3 * * *")),
			Timeout:  getdur("RETENTION_TIMEOUT", 5*time.Minute),
		},
		RateStore: RateStoreConfig{
			Kind:     strings.ToLower(getenv("RATE_STORE", "sql")),
			RedisURL: getenv("REDIS_URL", ""),
		},
		Email: EmailConfig{
			Provider:       strings.ToLower(getenv("EMAIL_PROVIDER", "log")),
			From:           getenv("EMAIL_FROM", ""),
			FromName:       getenv("EMAIL_FROM_NAME", "Signup Gate"),
			SendGridAPIKey: getenv("SENDGRID_API_KEY", ""),
			SMTPHost:       getenv("SMTP_HOST", ""),
			SMTPPort:       getint("SMTP_PORT", 587),
			SMTPUsername:   getenv("SMTP_USERNAME", ""),
			SMTPPassword:   getenv("SMTP_PASSWORD", ""),
		},
		Identity: IdentityConfig{
			Provider:        strings.ToLower(getenv("IDENTITY_PROVIDER", "local")),
			ProjectID:       getenv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getenv("FIREBASE_CREDENTIALS_FILE", ""),
			ContinueURL:     getenv("ACTIVATION_CONTINUE_URL", "http://localhost:3000/activate"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-signup-gate"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
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
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
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
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	// signup policy
	if cfg.Signup.IPLimit < 1 || cfg.Signup.EmailLimit < 1 {
		return errors.New("SIGNUP_IP_LIMIT and SIGNUP_EMAIL_LIMIT must be >= 1")
	}
	if cfg.Signup.TokenTTL <= 0 {
		return errors.New("SIGNUP_TOKEN_TTL must be > 0")
	}
	if cfg.Signup.NotifyTimeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be > 0")
	}
	if cfg.Retention.Days < 0 {
		return errors.New("RETENTION_DAYS must be >= 0")
	}
	if cfg.Retention.Days > 0 && cfg.Retention.Schedule == "" {
		return errors.New("RETENTION_SCHEDULE must not be empty when RETENTION_DAYS > 0")
	}

	switch cfg.RateStore.Kind {
	case "sql":
	case "redis":
		if strings.TrimSpace(cfg.RateStore.RedisURL) == "" {
			return errors.New("REDIS_URL is required when RATE_STORE=redis")
		}
	default:
		return fmt.Errorf("RATE_STORE must be sql or redis, got %q", cfg.RateStore.Kind)
	}

	switch cfg.Email.Provider {
	case "log":
	case "sendgrid":
		if cfg.Email.SendGridAPIKey == "" || cfg.Email.From == "" {
			return errors.New("SENDGRID_API_KEY and EMAIL_FROM are required when EMAIL_PROVIDER=sendgrid")
		}
	case "smtp":
		if cfg.Email.SMTPHost == "" || cfg.Email.From == "" {
			return errors.New("SMTP_HOST and EMAIL_FROM are required when EMAIL_PROVIDER=smtp")
		}
		if cfg.Email.SMTPPort <= 0 {
			return errors.New("SMTP_PORT must be > 0")
		}
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be log, sendgrid or smtp, got %q", cfg.Email.Provider)
	}

	switch cfg.Identity.Provider {
	case "local":
	case "firebase":
		if cfg.Identity.ProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required when IDENTITY_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be local or firebase, got %q", cfg.Identity.Provider)
	}
	return nil
}

// ---- helpers (no external deps) ----

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
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
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
