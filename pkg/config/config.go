package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	APIKeyHash  string
	Port        string
	Environment string
	// Logging
	LogLevel  string
	LogFormat string
	// Path to the YAML engine profile, empty for built-in defaults
	EngineProfilePath string
	// Security configuration
	AllowedOrigins  string
	TrustedProxies  string
	EnableRateLimit bool
	MaxRequestSize  int64
	RateLimitPerMin int
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		APIKeyHash:        getEnv("API_KEY_HASH", ""),
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		EngineProfilePath: getEnv("ENGINE_PROFILE", ""),
		// Security configuration
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:  getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit: getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		MaxRequestSize:  getEnvAsInt64("MAX_REQUEST_SIZE", 10*1024*1024), // 10MB default
		RateLimitPerMin: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether dataset and profile storage is configured
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// AuthEnabled reports whether API routes require a bearer token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return splitList(c.AllowedOrigins)
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return splitList(c.TrustedProxies)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
