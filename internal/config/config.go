package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds the settings shared by the auth, account and gateway binaries.
// Each binary reads only the fields it needs.
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	DatabaseDriver string // mysql or sqlite

	// Per-service DSNs. Both fall back to DATABASE_DSN; sharing one database
	// is supported because each schema tracks its own migration version.
	AuthDatabaseDSN    string
	AccountDatabaseDSN string

	JWTSecret string
	JWTExpiry time.Duration

	// Account service -> auth service.
	AuthServiceURL     string
	AuthServiceTimeout time.Duration

	// ServiceToken is a shared bearer that internal callers present instead of
	// a user JWT. Empty disables service-to-service access.
	ServiceToken string

	// Gateway.
	AuthUpstreamURL    string
	AccountUpstreamURL string
	RoutesFile         string

	RateLimitRPS   float64
	RateLimitBurst int

	ShutdownGracePeriod time.Duration
}

// Load reads the configuration from the environment. defaultPort is used when
// PORT is unset so the three services can share a .env file during development.
func Load(defaultPort string) Config {
	dsn := getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/vds?parseTime=true")

	cfg := Config{
		Port:                getEnv("PORT", defaultPort),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		DatabaseDriver:      getEnv("DATABASE_DRIVER", "mysql"),
		AuthDatabaseDSN:     getEnv("AUTH_DATABASE_DSN", dsn),
		AccountDatabaseDSN:  getEnv("ACCOUNT_DATABASE_DSN", dsn),
		JWTSecret:           getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiry:           getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		AuthServiceURL:      getEnv("AUTH_SERVICE_URL", "http://127.0.0.1:5000"),
		AuthServiceTimeout:  getEnvDuration("AUTH_SERVICE_TIMEOUT", 5*time.Second),
		ServiceToken:        os.Getenv("SERVICE_TOKEN"),
		AuthUpstreamURL:     getEnv("AUTH_UPSTREAM_URL", "http://127.0.0.1:5000"),
		AccountUpstreamURL:  getEnv("ACCOUNT_UPSTREAM_URL", "http://127.0.0.1:6000"),
		RoutesFile:          os.Getenv("GATEWAY_ROUTES_FILE"),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 10),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.Env == "production" && cfg.JWTSecret == devJWTSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	slog.Warn("invalid number in environment, using default", "key", key, "value", v)
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare integers are read as seconds.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
	return fallback
}
