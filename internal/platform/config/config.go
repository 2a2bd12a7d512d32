package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/teambition/rrule-go"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	LogLevel          string
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Google sign-in for operators
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	RedisURL          string // empty disables the statement cache
	StatementCacheTTL time.Duration

	RecomputeSchedule  string // RRULE, empty disables the job
	RateLimit          string // ulule limiter format, e.g. "100-M"
	PostHogAPIKey      string
	PostHogEndpoint    string
	CORSAllowedOrigins []string
	AuditBufferSize    int
	MigrationsPath     string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "concert-ledger")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("STATEMENT_CACHE_TTL", "5m")
	viper.SetDefault("RECOMPUTE_SCHEDULE", "FREQ=DAILY;BYHOUR=3;BYMINUTE=0;BYSECOND=0")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("AUDIT_BUFFER_SIZE", 256)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.LogLevel = strings.ToLower(viper.GetString("LOG_LEVEL"))

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		cfg.JWTSecret = defaultJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiry, err := parseDuration("JWT_EXPIRY_DURATION")
	if err != nil {
		return nil, err
	}
	cfg.JWTExpiryDuration = jwtExpiry

	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "concert-ledger"
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", cfg.JWTIssuer)
	}

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	if cfg.GoogleClientID == "" {
		log.Println("Warning: GOOGLE_CLIENT_ID not set. Google sign-in is disabled.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cacheTTL, err := parseDuration("STATEMENT_CACHE_TTL")
	if err != nil {
		return nil, err
	}
	cfg.StatementCacheTTL = cacheTTL

	cfg.RecomputeSchedule = strings.TrimSpace(viper.GetString("RECOMPUTE_SCHEDULE"))
	if cfg.RecomputeSchedule != "" {
		if _, err := rrule.StrToRRule(cfg.RecomputeSchedule); err != nil {
			return nil, fmt.Errorf("invalid RECOMPUTE_SCHEDULE %q: %w", cfg.RecomputeSchedule, err)
		}
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.PostHogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PostHogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	cfg.AuditBufferSize = viper.GetInt("AUDIT_BUFFER_SIZE")
	if cfg.AuditBufferSize <= 0 {
		return nil, fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", cfg.AuditBufferSize)
	}
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	return cfg, nil
}

func parseDuration(key string) (time.Duration, error) {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
