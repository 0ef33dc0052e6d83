package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey means GEMINI_API_KEY was not provided
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// StartupConfigurationError is returned by Load when the process cannot start
type StartupConfigurationError struct {
	Key string
	Err error
}

func (e *StartupConfigurationError) Error() string {
	return fmt.Sprintf("startup configuration (%s): %v", e.Key, e.Err)
}

func (e *StartupConfigurationError) Unwrap() error { return e.Err }

// Config holds all configuration for the API service
type Config struct {
	// Server
	Port            string
	Environment     string
	ShutdownTimeout time.Duration

	// Provider
	GeminiAPIKey    string
	ProviderTimeout time.Duration

	// HTTP
	AllowedOrigins        []string
	BodyLimitBytes        int64
	CircuitBreakerEnabled bool

	// Optional infrastructure
	NATSURL      string
	OTLPEndpoint string
}

// IsProduction reports whether GO_ENV is "production"
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

var defaults = map[string]any{
	"port":                        "8080",
	"go_env":                      "development",
	"allowed_origins":             "http://localhost:3000,https://gemini-chat-image.netlify.app",
	"body_limit_mb":               50,
	"provider_timeout":            "2m",
	"nats_url":                    "",
	"otel_exporter_otlp_endpoint": "",
	"circuit_breaker_enabled":     false,
	"shutdown_timeout":            "30s",
	"gemini_api_key":              "",
}

// Load reads configuration from an optional .env file, an optional YAML
// file named by CONFIG_FILE, and the environment. Environment wins.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &StartupConfigurationError{Key: ".env", Err: err}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &StartupConfigurationError{Key: "CONFIG_FILE", Err: fmt.Errorf("error reading config file: %w", err)}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                  v.GetString("port"),
		Environment:           v.GetString("go_env"),
		GeminiAPIKey:          strings.TrimSpace(v.GetString("gemini_api_key")),
		AllowedOrigins:        splitList(v.Get("allowed_origins")),
		NATSURL:               v.GetString("nats_url"),
		OTLPEndpoint:          v.GetString("otel_exporter_otlp_endpoint"),
		CircuitBreakerEnabled: v.GetBool("circuit_breaker_enabled"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, &StartupConfigurationError{Key: "GEMINI_API_KEY", Err: ErrMissingAPIKey}
	}

	limitMB := v.GetInt64("body_limit_mb")
	if limitMB <= 0 {
		return nil, &StartupConfigurationError{Key: "BODY_LIMIT_MB", Err: fmt.Errorf("must be positive, got %d", limitMB)}
	}
	cfg.BodyLimitBytes = limitMB << 20

	var err error
	if cfg.ProviderTimeout, err = duration(v, "provider_timeout"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = duration(v, "shutdown_timeout"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d := v.GetDuration(key)
	if d < 0 {
		return 0, &StartupConfigurationError{Key: strings.ToUpper(key), Err: fmt.Errorf("must not be negative, got %s", d)}
	}
	return d, nil
}

// splitList accepts a comma-separated string or a YAML list
func splitList(raw any) []string {
	var items []string
	switch val := raw.(type) {
	case string:
		items = strings.Split(val, ",")
	case []string:
		items = val
	case []any:
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
