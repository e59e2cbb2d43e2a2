package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const (
	ProviderPostgres = "postgres"
	ProviderResend   = "resend"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	Provider       string `env:"NEWSLETTER_PROVIDER" envDefault:"postgres" validate:"required,oneof=postgres resend"`
	RequireConsent bool   `env:"REQUIRE_CONSENT" envDefault:"false"` // reject bodies without a consent key
	BlogName       string `env:"BLOG_NAME" envDefault:"PHP Guides" validate:"required"`

	DatabaseURL     string `env:"DATABASE_URL"       validate:"required_if=Provider postgres"`
	ConfirmSecret   string `env:"CONFIRM_SECRET"     validate:"required_if=Provider postgres"`
	ConfirmBaseURL  string `env:"CONFIRM_BASE_URL"   envDefault:"http://localhost:8080" validate:"required,url"`
	ConfirmTTLHours int    `env:"CONFIRM_TTL_HOURS"  envDefault:"48" validate:"min=1,max=720"`
	PruneSchedule   string `env:"PRUNE_SCHEDULE"     envDefault:"@hourly" validate:"required"`

	ResendAPIKey     string `env:"RESEND_API_KEY"     validate:"required_if=Provider resend,required_if=Env production,required_if=Env staging"`
	ResendFrom       string `env:"RESEND_FROM"        validate:"required_if=Env production,required_if=Env staging"`
	ResendAudienceID string `env:"RESEND_AUDIENCE_ID" validate:"required_if=Provider resend"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Provider == ProviderPostgres {
		if err := v.Var(cfg.ConfirmSecret, "min=32"); err != nil {
			return nil, fmt.Errorf("invalid config: CONFIRM_SECRET must be at least 32 characters: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

func (c *Config) ConfirmTTL() time.Duration {
	return time.Duration(c.ConfirmTTLHours) * time.Hour
}

// ClientConfig drives the terminal popup. Flags override it after Load.
type ClientConfig struct {
	Endpoint   string `env:"NEWSLETTER_ENDPOINT"  envDefault:"http://localhost:8080" validate:"required,url"`
	Provider   string `env:"NEWSLETTER_PROVIDER"  envDefault:"postgres" validate:"required,alphanum"`
	Variant    string `env:"NEWSLETTER_VARIANT"   envDefault:"gdpr" validate:"oneof=gdpr rich"`
	Title      string `env:"NEWSLETTER_TITLE"     envDefault:"Subscribe to PHP Guides" validate:"required"`
	ToastTTLMS int    `env:"TOAST_TTL_MS"         envDefault:"7000" validate:"min=1"`
	LogFile    string `env:"NEWSLETTER_LOG_FILE"  envDefault:"newsletter.log"`
	LogLevel   string `env:"LOG_LEVEL"            envDefault:"info" validate:"oneof=debug info warn error"`
}

// LoadClient reads the environment only. Callers apply flag overrides and
// then call Validate.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *ClientConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *ClientConfig) SlogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

func (c *ClientConfig) ToastTTL() time.Duration {
	return time.Duration(c.ToastTTLMS) * time.Millisecond
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
