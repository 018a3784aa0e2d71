package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one pass
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// ValidateConfig checks the configuration for values the pipeline cannot run with
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Server.Port == "" {
		errs = append(errs, ValidationError{"server.port", "must be set"})
	}
	for _, proxy := range cfg.Server.TrustedProxies {
		if !validProxy(proxy) {
			errs = append(errs, ValidationError{"server.trusted_proxies", fmt.Sprintf("%q is not an IP or CIDR", proxy)})
		}
	}

	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.SQLitePath == "" {
			errs = append(errs, ValidationError{"database.sqlite_path", "required when driver is sqlite"})
		}
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			errs = append(errs, ValidationError{"database", "host and name are required when driver is postgres"})
		}
	default:
		errs = append(errs, ValidationError{"database.driver", fmt.Sprintf("must be 'postgres' or 'sqlite', got: %q", cfg.Database.Driver)})
	}

	if len(cfg.Model.Models) == 0 {
		errs = append(errs, ValidationError{"model.models", "at least one model identifier is required"})
	}
	if cfg.Model.MaxOutputTokens <= 0 {
		errs = append(errs, ValidationError{"model.max_output_tokens", "must be positive"})
	}

	if cfg.Image.Attempts < 1 {
		errs = append(errs, ValidationError{"image.attempts", "must be at least 1"})
	}
	if cfg.Image.Concurrency < 1 {
		errs = append(errs, ValidationError{"image.concurrency", "must be at least 1"})
	}
	if cfg.Image.TimeoutMS <= 0 {
		errs = append(errs, ValidationError{"image.timeout_ms", "must be positive"})
	}
	if cfg.Image.Width <= 0 || cfg.Image.Height <= 0 {
		errs = append(errs, ValidationError{"image", "width and height must be positive"})
	}
	if cfg.Image.RateLimitBackoffMS < 0 || cfg.Image.RetryBackoffMS < 0 {
		errs = append(errs, ValidationError{"image", "backoff values must not be negative"})
	}

	if cfg.RateLimit.PerMinute < 1 || cfg.RateLimit.Burst < 1 {
		errs = append(errs, ValidationError{"ratelimit", "per_minute and burst must be at least 1"})
	}

	if cfg.Environment.IsProduction() && cfg.Auth.JWTSecret == "" {
		errs = append(errs, ValidationError{"auth.jwt_secret", "required in production"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}
