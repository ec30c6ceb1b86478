package config

import (
	"errors"
	"os"
	"strconv"
)

// ErrMissingJWTSecret is returned by Validate when no signing secret is
// configured. Callers treat it as fatal at startup.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not configured")

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort          string
	MySQLDSN            string
	RedisAddr           string
	RedisDB             int
	RedisPass           string
	JWTSecret           string
	JWTIssuer           string
	JWTAudience         string
	JWTExpiryMinutes    int
	QueryTimeoutSeconds int
	SwaggerHost         string
}

// Load builds Config from environment with sensible defaults. The JWT secret
// deliberately has no default; Validate rejects an empty one.
func Load() *Config {
	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		MySQLDSN:            getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/contactvault?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTIssuer:           getEnv("JWT_ISSUER", "contactvault"),
		JWTAudience:         getEnv("JWT_AUDIENCE", "contactvault-api"),
		JWTExpiryMinutes:    getEnvInt("JWT_EXPIRY_MINUTES", 60),
		QueryTimeoutSeconds: getEnvInt("QUERY_TIMEOUT_SECONDS", 5),
		SwaggerHost:         os.Getenv("SWAGGER_HOST"),
	}
}

// Validate checks the parts of the configuration that must be present before
// the process can serve a single request.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
