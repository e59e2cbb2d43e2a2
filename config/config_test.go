package config_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/config"
)

const testSecret = "config-test-secret-at-least-32-chars"

func TestLoad_PostgresDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/newsletter")
	t.Setenv("CONFIRM_SECRET", testSecret)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != config.ProviderPostgres {
		t.Errorf("provider = %q, want postgres", cfg.Provider)
	}
	if cfg.RequireConsent {
		t.Error("a missing consent field should be accepted by default")
	}
	if cfg.ConfirmTTL() != 48*time.Hour {
		t.Errorf("confirm ttl = %v, want 48h", cfg.ConfirmTTL())
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("level = %v, want info", cfg.SlogLevel())
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("CONFIRM_SECRET", testSecret)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoad_ShortConfirmSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/newsletter")
	t.Setenv("CONFIRM_SECRET", "short")

	_, err := config.Load()
	if err == nil || !strings.Contains(err.Error(), "CONFIRM_SECRET") {
		t.Fatalf("err = %v, want CONFIRM_SECRET length error", err)
	}
}

func TestLoad_ResendRequiresAudience(t *testing.T) {
	t.Setenv("NEWSLETTER_PROVIDER", "resend")
	t.Setenv("RESEND_API_KEY", "re_test")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error without RESEND_AUDIENCE_ID")
	}

	t.Setenv("RESEND_AUDIENCE_ID", "aud_123")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("database url = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := config.LoadClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ToastTTL() != 7*time.Second {
		t.Errorf("toast ttl = %v, want 7s", cfg.ToastTTL())
	}
	if cfg.Variant != "gdpr" {
		t.Errorf("variant = %q, want gdpr", cfg.Variant)
	}
}

func TestClientConfig_ValidateRejectsUnknownVariant(t *testing.T) {
	cfg, err := config.LoadClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Variant = "fancy"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
