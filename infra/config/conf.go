package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds process-wide singletons
type Config struct {
	Validator *validator.Validate
}

// AppConfig represents the application configuration
type AppConfig struct {
	Port           string
	OpenSearchURL  string
	OpenSearchUser string
	OpenSearchPass string
	EnableLogging  bool
	LoggingLevel   string
	ConfigDBPath   string
	RedisURL       string
}

// GatewayConfig represents outbound payment routing configuration
type GatewayConfig struct {
	DefaultProvider     string
	FallbackProviders   []string
	MaxRetries          int
	RetryDelay          time.Duration
	BackoffMultiplier   float64
	EnableFailover      bool
	EnableLoadBalancing bool
	HealthCheckInterval time.Duration
}

// WebhookConfig represents inbound webhook verification configuration
type WebhookConfig struct {
	EnableSignatureVerification bool
	EnableTimestampVerification bool
	TimestampTolerance          time.Duration
	EnableReplayProtection      bool
	ReplayWindow                time.Duration
	EnableRateLimiting          bool
	RateLimitPerMinute          int
	EnableIPWhitelist           bool
	AllowedIPs                  []string
}

var (
	instance          *Config
	appConfigInstance *AppConfig
)

// App returns the process-wide configuration singleton
func App() *Config {
	if instance == nil {
		instance = &Config{
			Validator: validator.New(),
		}
	}
	return instance
}

// GetAppConfig returns the application configuration
func GetAppConfig() *AppConfig {
	if appConfigInstance == nil {
		appConfigInstance = &AppConfig{
			Port:           GetEnv("APP_PORT", "9999"),
			OpenSearchURL:  GetEnv("OPENSEARCH_URL", "http://localhost:9200"),
			OpenSearchUser: GetEnv("OPENSEARCH_USER", ""),
			OpenSearchPass: GetEnv("OPENSEARCH_PASSWORD", ""),
			EnableLogging:  GetBoolEnv("ENABLE_OPENSEARCH_LOGGING", false),
			LoggingLevel:   GetEnv("LOGGING_LEVEL", "info"),
			ConfigDBPath:   GetEnv("CONFIG_DB_PATH", "data/paybridge.db"),
			RedisURL:       GetEnv("REDIS_URL", ""),
		}
	}
	return appConfigInstance
}

// GetGatewayConfig loads routing and failover settings from the environment
func GetGatewayConfig() GatewayConfig {
	return GatewayConfig{
		DefaultProvider:     GetEnv("GATEWAY_DEFAULT_PROVIDER", "stripe"),
		FallbackProviders:   GetListEnv("GATEWAY_FALLBACK_PROVIDERS"),
		MaxRetries:          GetIntEnv("GATEWAY_MAX_RETRIES", 3),
		RetryDelay:          time.Duration(GetIntEnv("GATEWAY_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		BackoffMultiplier:   GetFloatEnv("GATEWAY_RETRY_BACKOFF_MULTIPLIER", 1.0),
		EnableFailover:      GetBoolEnv("GATEWAY_ENABLE_FAILOVER", true),
		EnableLoadBalancing: GetBoolEnv("GATEWAY_ENABLE_LOAD_BALANCING", false),
		HealthCheckInterval: time.Duration(GetIntEnv("GATEWAY_HEALTH_CHECK_MINUTES", 5)) * time.Minute,
	}
}

// GetWebhookConfig loads webhook verification settings from the environment
func GetWebhookConfig() WebhookConfig {
	return WebhookConfig{
		EnableSignatureVerification: GetBoolEnv("WEBHOOK_ENABLE_SIGNATURE_VERIFICATION", true),
		EnableTimestampVerification: GetBoolEnv("WEBHOOK_ENABLE_TIMESTAMP_VERIFICATION", true),
		TimestampTolerance:          time.Duration(GetIntEnv("WEBHOOK_TIMESTAMP_TOLERANCE_SECONDS", 300)) * time.Second,
		EnableReplayProtection:      GetBoolEnv("WEBHOOK_ENABLE_REPLAY_PROTECTION", true),
		ReplayWindow:                time.Duration(GetIntEnv("WEBHOOK_REPLAY_WINDOW_MINUTES", 30)) * time.Minute,
		EnableRateLimiting:          GetBoolEnv("WEBHOOK_ENABLE_RATE_LIMITING", true),
		RateLimitPerMinute:          GetIntEnv("WEBHOOK_RATE_LIMIT_PER_MINUTE", 100),
		EnableIPWhitelist:           GetBoolEnv("WEBHOOK_ENABLE_IP_WHITELIST", false),
		AllowedIPs:                  GetListEnv("WEBHOOK_ALLOWED_IPS"),
	}
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetBoolEnv returns the boolean value of an environment variable or a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetIntEnv returns the integer value of an environment variable or a default value
func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetFloatEnv returns the float value of an environment variable or a default value
func GetFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetListEnv returns a comma-separated environment variable as a slice
func GetListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}
