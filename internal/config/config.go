// Package config loads server settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Stripe   StripeConfig   `koanf:"stripe"`
	Mail     MailConfig     `koanf:"mail"`
	Logging  LoggingConfig  `koanf:"logging"`
	VIP      VIPConfig      `koanf:"vip"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// FrontendURL is the base for password-reset links and checkout redirects.
	FrontendURL string `koanf:"frontend_url"`
}

type DatabaseConfig struct {
	// URL is a sqlite path, a MySQL DSN or a postgres:// URL.
	URL string `koanf:"url"`
}

type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	AdminKey          string        `koanf:"admin_key"`
	APIKey            string        `koanf:"api_key"`
	AllowedOrigins    []string      `koanf:"allowed_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	// AuthRateLimit caps credential endpoints per IP per minute.
	AuthRateLimit     int           `koanf:"auth_rate_limit"`
}

type StripeConfig struct {
	SecretKey      string `koanf:"secret_key"`
	WebhookSecret  string `koanf:"webhook_secret"`
	MonthlyPriceID string `koanf:"monthly_price_id"`
	AnnualPriceID  string `koanf:"annual_price_id"`
}

// Enabled reports whether checkout and webhooks can be served.
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != "" && s.WebhookSecret != ""
}

type MailConfig struct {
	Provider     string `koanf:"provider"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     string `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type VIPConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Security.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.VIP.SweepInterval <= 0 {
		return errors.New("VIP_SWEEP_INTERVAL must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	switch c.Mail.Provider {
	case "", "console":
	case "smtp":
		if c.Mail.SMTPHost == "" || c.Mail.SMTPFrom == "" {
			return errors.New("SMTP_HOST and SMTP_FROM are required for the smtp mail provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", c.Mail.Provider)
	}
	return nil
}
