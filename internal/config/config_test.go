package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"PORT", "GO_ENV", "GEMINI_API_KEY", "ALLOWED_ORIGINS", "BODY_LIMIT_MB",
	"PROVIDER_TIMEOUT", "NATS_URL", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"CIRCUIT_BREAKER_ENABLED", "SHUTDOWN_TIMEOUT", "CONFIG_FILE",
}

// clearEnv unsets every key Load reads; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"http://localhost:3000", "https://gemini-chat-image.netlify.app"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(50<<20), cfg.BodyLimitBytes)
	assert.Equal(t, 2*time.Minute, cfg.ProviderTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.CircuitBreakerEnabled)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	var startupErr *StartupConfigurationError
	require.True(t, errors.As(err, &startupErr))
	assert.Equal(t, "GEMINI_API_KEY", startupErr.Key)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("PORT", "9090")
	t.Setenv("GO_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example ")
	t.Setenv("BODY_LIMIT_MB", "2")
	t.Setenv("PROVIDER_TIMEOUT", "0")
	t.Setenv("CIRCUIT_BREAKER_ENABLED", "true")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(2<<20), cfg.BodyLimitBytes)
	assert.Zero(t, cfg.ProviderTimeout)
	assert.True(t, cfg.CircuitBreakerEnabled)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "BODY_LIMIT_MB", value: "0"},
		{key: "PROVIDER_TIMEOUT", value: "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GEMINI_API_KEY", "k")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			var startupErr *StartupConfigurationError
			require.True(t, errors.As(err, &startupErr))
			assert.Equal(t, tt.key, startupErr.Key)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "genrelay.yaml")
	yaml := `
port: "7070"
gemini_api_key: from-file
allowed_origins:
  - https://one.example
  - https://two.example
provider_timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "6060")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "6060", cfg.Port, "environment wins over file")
	assert.Equal(t, "from-file", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.ProviderTimeout)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	var startupErr *StartupConfigurationError
	require.True(t, errors.As(err, &startupErr))
	assert.Equal(t, "CONFIG_FILE", startupErr.Key)
}
