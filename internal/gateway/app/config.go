package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer      string // Issuer name used for admin tokens and TOTP labels
	AdminSecret string // Required: HMAC secret for admin bearer tokens

	DatabaseFile string // Path to SQLite database file (default: ./gateway.db)

	AccessTokenTTL  time.Duration // Default access token validity (default: 12h)
	RefreshTokenTTL time.Duration // Default refresh token validity (default: 720h)
	ClientCacheTTL  time.Duration // Client cache entry lifetime (default: 30s)

	StepUpRiskThreshold float64 // Risk score at or below which MFA is skipped (0 disables)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired token sweep interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:      getEnvOrDefault("GATEWAY_ISSUER", "idgate"),
		AdminSecret: os.Getenv("GATEWAY_ADMIN_SECRET"),

		DatabaseFile: getEnvOrDefault("GATEWAY_DATABASE_FILE", "gateway.db"),

		AccessTokenTTL:  getEnvDurationOrDefault("GATEWAY_ACCESS_TOKEN_TTL", 12*time.Hour),
		RefreshTokenTTL: getEnvDurationOrDefault("GATEWAY_REFRESH_TOKEN_TTL", 30*24*time.Hour),
		ClientCacheTTL:  getEnvDurationOrDefault("GATEWAY_CLIENT_CACHE_TTL", 30*time.Second),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if v := os.Getenv("GATEWAY_STEPUP_RISK_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StepUpRiskThreshold = threshold
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
