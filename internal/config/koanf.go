package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			FrontendURL:     "http://localhost:3000",
		},
		Database: DatabaseConfig{
			URL: "data/contentgate.db",
		},
		Security: SecurityConfig{
			TokenTTL:          7 * 24 * time.Hour,
			AllowedOrigins:    []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			AuthRateLimit:     10,
		},
		Mail: MailConfig{
			Provider: "console",
			SMTPPort: "587",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		VIP: VIPConfig{
			SweepInterval: 24 * time.Hour,
		},
	}
}

// Load resolves configuration with precedence env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.allowed_origins",
}

// processSliceFields splits comma-separated env values for slice settings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"shutdown_timeout": "server.shutdown_timeout",
	"frontend_url":     "server.frontend_url",

	"database_url": "database.url",
	"db_path":      "database.url",

	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
	"admin_key":           "security.admin_key",
	"api_key":             "security.api_key",
	"allowed_origins":     "security.allowed_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"auth_rate_limit":     "security.auth_rate_limit",

	"stripe_secret_key":       "stripe.secret_key",
	"stripe_webhook_secret":   "stripe.webhook_secret",
	"stripe_monthly_price_id": "stripe.monthly_price_id",
	"stripe_annual_price_id":  "stripe.annual_price_id",

	"mail_provider": "mail.provider",
	"smtp_host":     "mail.smtp_host",
	"smtp_port":     "mail.smtp_port",
	"smtp_user":     "mail.smtp_user",
	"smtp_password": "mail.smtp_password",
	"smtp_from":     "mail.smtp_from",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"vip_sweep_interval": "vip.sweep_interval",
}

// envTransformFunc maps env names onto config paths. Unmapped names are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
