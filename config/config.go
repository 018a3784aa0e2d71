package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultModels is the ordered list of model identifiers, most capable first
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-2.0-pro",
	"gemini-1.5-pro",
}

// Config holds all configuration for the application
type Config struct {
	Environment Environment `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Model     ModelConfig     `mapstructure:"model"`
	Image     ImageConfig     `mapstructure:"image"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustedProxies lists the proxy IPs or CIDRs whose forwarding headers
	// are believed. Empty means the client IP is always the peer address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"` // "postgres" or "sqlite"
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"ssl_mode"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RedisConfig holds Redis configuration. An empty URL disables Redis.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// ModelConfig holds the generative model configuration
type ModelConfig struct {
	APIKey          string   `mapstructure:"api_key"`
	Models          []string `mapstructure:"models"`
	BaseURL         string   `mapstructure:"base_url"`
	Temperature     float32  `mapstructure:"temperature"`
	MaxOutputTokens int32    `mapstructure:"max_output_tokens"`
	// Strict answers an unparsable model response with 502 instead of mock dishes
	Strict bool `mapstructure:"strict"`
}

// ImageConfig holds image acquisition configuration
type ImageConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Endpoint           string `mapstructure:"endpoint"`
	Width              int    `mapstructure:"width"`
	Height             int    `mapstructure:"height"`
	TimeoutMS          int    `mapstructure:"timeout_ms"`
	Attempts           int    `mapstructure:"attempts"`
	Concurrency        int    `mapstructure:"concurrency"`
	Batch              bool   `mapstructure:"batch"`
	RateLimitBackoffMS int    `mapstructure:"rate_limit_backoff_ms"`
	RetryBackoffMS     int    `mapstructure:"retry_backoff_ms"`
}

// Timeout is the deadline applied to each fetch attempt
func (c ImageConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// StorageConfig holds object storage configuration. An empty bucket disables uploads.
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig holds rate limiting configuration for the generate endpoint
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// envBindings maps config keys to the environment variables that may carry them, in priority order
var envBindings = map[string][]string{
	"server.host":                 {"SERVER_HOST"},
	"server.port":                 {"SERVER_PORT", "PORT"},
	"server.allowed_origins":      {"ALLOWED_ORIGINS"},
	"server.trusted_proxies":      {"TRUSTED_PROXIES"},
	"database.driver":             {"DB_DRIVER"},
	"database.host":               {"DB_HOST"},
	"database.port":               {"DB_PORT"},
	"database.user":               {"DB_USER"},
	"database.password":           {"DB_PASSWORD"},
	"database.name":               {"DB_NAME"},
	"database.ssl_mode":           {"DB_SSL_MODE"},
	"database.sqlite_path":        {"SQLITE_PATH"},
	"redis.url":                   {"REDIS_URL"},
	"model.api_key":               {"GEMINI_API_KEY", "NEXT_PUBLIC_GEMINI_API_KEY", "GEMINI_API"},
	"model.models":                {"GEMINI_MODELS"},
	"model.base_url":              {"GEMINI_API_URL"},
	"model.temperature":           {"GEMINI_TEMPERATURE"},
	"model.max_output_tokens":     {"GEMINI_MAX_OUTPUT_TOKENS"},
	"model.strict":                {"STRICT_MODEL_RESPONSE"},
	"image.enabled":               {"IMAGE_GENERATION_ENABLED"},
	"image.endpoint":              {"IMAGE_ENDPOINT"},
	"image.width":                 {"IMAGE_WIDTH"},
	"image.height":                {"IMAGE_HEIGHT"},
	"image.timeout_ms":            {"IMAGE_TIMEOUT_MS"},
	"image.attempts":              {"IMAGE_ATTEMPTS"},
	"image.concurrency":           {"IMAGE_CONCURRENCY"},
	"image.batch":                 {"IMAGE_BATCH_MODE"},
	"image.rate_limit_backoff_ms": {"IMAGE_RATE_LIMIT_BACKOFF_MS"},
	"image.retry_backoff_ms":      {"IMAGE_RETRY_BACKOFF_MS"},
	"storage.bucket":              {"S3_BUCKET_NAME"},
	"storage.region":              {"AWS_REGION"},
	"storage.public_base_url":     {"S3_PUBLIC_BASE_URL"},
	"auth.jwt_secret":             {"JWT_SECRET"},
	"ratelimit.per_minute":        {"RATE_LIMIT_PER_MINUTE"},
	"ratelimit.burst":             {"RATE_LIMIT_BURST"},
}

// LoadConfig reads an optional .env file, an optional config.yaml and the
// environment, then validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Environment = GetEnvironment()

	if cfg.Model.APIKey == "" {
		key, err := modelKeyFromFiles()
		if err != nil {
			return nil, err
		}
		cfg.Model.APIKey = key
	}
	cfg.Model.Models = cleanList(cfg.Model.Models)
	cfg.Server.AllowedOrigins = cleanList(cfg.Server.AllowedOrigins)
	cfg.Server.TrustedProxies = cleanList(cfg.Server.TrustedProxies)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "dishcraft")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "dishcraft.db")

	v.SetDefault("redis.url", "")

	v.SetDefault("model.api_key", "")
	v.SetDefault("model.models", DefaultModels)
	v.SetDefault("model.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("model.temperature", 0.5)
	v.SetDefault("model.max_output_tokens", 2048)
	v.SetDefault("model.strict", false)

	v.SetDefault("image.enabled", true)
	v.SetDefault("image.endpoint", "https://image.pollinations.ai/prompt/")
	v.SetDefault("image.width", 800)
	v.SetDefault("image.height", 450)
	v.SetDefault("image.timeout_ms", 25000)
	v.SetDefault("image.attempts", 2)
	v.SetDefault("image.concurrency", 3)
	v.SetDefault("image.batch", false)
	v.SetDefault("image.rate_limit_backoff_ms", 1500)
	v.SetDefault("image.retry_backoff_ms", 500)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("ratelimit.per_minute", 20)
	v.SetDefault("ratelimit.burst", 5)
}

// modelKeyFromFiles looks for the model key in GEMINI_API_KEY_FILE and then in the secrets directory
func modelKeyFromFiles() (string, error) {
	if keyFile := os.Getenv("GEMINI_API_KEY_FILE"); keyFile != "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read API key file: %w", err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return "", fmt.Errorf("API key file is empty")
		}
		return key, nil
	}
	return readSecret("gemini_api_key"), nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
