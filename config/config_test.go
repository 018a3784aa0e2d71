package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears variables that would leak in from the developer's shell
func isolate(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, name := range envs {
			t.Setenv(name, "")
		}
	}
	t.Setenv("GEMINI_API_KEY_FILE", "")
	t.Setenv("ENV", "")
	t.Setenv("CI", "")
	t.Setenv("SECRETS_DIR", t.TempDir())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultModels, cfg.Model.Models)
	assert.Empty(t, cfg.Model.APIKey)
	assert.False(t, cfg.Model.Strict)

	assert.True(t, cfg.Image.Enabled)
	assert.False(t, cfg.Image.Batch)
	assert.Equal(t, 2, cfg.Image.Attempts)
	assert.Equal(t, 3, cfg.Image.Concurrency)
	assert.Equal(t, 25000, cfg.Image.TimeoutMS)
	assert.False(t, cfg.Storage.Enabled())
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, Development, cfg.Environment)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("NEXT_PUBLIC_GEMINI_API_KEY", "public-key")
	t.Setenv("GEMINI_MODELS", "gemini-x, gemini-y")
	t.Setenv("IMAGE_GENERATION_ENABLED", "false")
	t.Setenv("IMAGE_BATCH_MODE", "true")
	t.Setenv("IMAGE_ATTEMPTS", "4")
	t.Setenv("IMAGE_TIMEOUT_MS", "1000")
	t.Setenv("STRICT_MODEL_RESPONSE", "true")
	t.Setenv("PORT", "9090")
	t.Setenv("S3_BUCKET_NAME", "dish-images")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "public-key", cfg.Model.APIKey)
	assert.Equal(t, []string{"gemini-x", "gemini-y"}, cfg.Model.Models)
	assert.False(t, cfg.Image.Enabled)
	assert.True(t, cfg.Image.Batch)
	assert.Equal(t, 4, cfg.Image.Attempts)
	assert.Equal(t, "1s", cfg.Image.Timeout().String())
	assert.True(t, cfg.Model.Strict)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.7"}, cfg.Server.TrustedProxies)
}

func TestLoadConfigKeyPriority(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API", "third")
	t.Setenv("GEMINI_API_KEY", "first")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Model.APIKey)
}

func TestLoadConfigKeyFromFile(t *testing.T) {
	isolate(t)
	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("  from-file \n"), 0o600))
	t.Setenv("GEMINI_API_KEY_FILE", keyFile)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Model.APIKey)
}

func TestLoadConfigKeyFromSecret(t *testing.T) {
	isolate(t)
	secrets := t.TempDir()
	t.Setenv("SECRETS_DIR", secrets)
	require.NoError(t, os.WriteFile(filepath.Join(secrets, "gemini_api_key"), []byte("secret-key"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Model.APIKey)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("IMAGE_CONCURRENCY", "0")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("TRUSTED_PROXIES", "load-balancer")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image.concurrency")
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "server.trusted_proxies")
}

func TestLoadConfigProductionRequiresJWTSecret(t *testing.T) {
	isolate(t)
	t.Setenv("ENV", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Environment.IsProduction())
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("PROD"))
	assert.Equal(t, Test, ParseEnvironment("test"))
	assert.Equal(t, Development, ParseEnvironment(""))
	assert.Equal(t, Development, ParseEnvironment("staging"))
}
