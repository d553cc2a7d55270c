package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTurnosAPIURL is the hosted mock collection the UI was first built against.
const DefaultTurnosAPIURL = "https://68588aee138a18086dfb32a1.mockapi.io/turnos"

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string
	// LogFormat is "json" or "text".
	LogFormat string

	TurnosAPIURL     string
	TurnosAPITimeout time.Duration

	DirectoryRevision   string
	DirectoryFile       string
	DirectoryAdminToken string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CORSAllowedOrigins []string
	SessionTTL         time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "json"))),

		TurnosAPIURL:     strings.TrimRight(getEnv("TURNOS_API_URL", DefaultTurnosAPIURL), "/"),
		TurnosAPITimeout: getEnvAsDuration("TURNOS_API_TIMEOUT", 10*time.Second),

		DirectoryRevision:   getEnv("DIRECTORY_REVISION", "general"),
		DirectoryFile:       getEnv("DIRECTORY_FILE", ""),
		DirectoryAdminToken: getEnv("DIRECTORY_ADMIN_TOKEN", ""),

		// Empty RedisAddr disables the directory override store.
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
