package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresPlatformBaseURL(t *testing.T) {
	t.Setenv("PLATFORM_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected an error without PLATFORM_BASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PLATFORM_BASE_URL", "https://api.awards.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Polling.Interval != 3*time.Second {
		t.Errorf("expected default poll interval 3s, got %s", cfg.Polling.Interval)
	}
	if cfg.Polling.MaxWait != 5*time.Minute {
		t.Errorf("expected default poll max wait 5m, got %s", cfg.Polling.MaxWait)
	}
	if cfg.Receipts.AttemptTTL != time.Hour {
		t.Errorf("expected default attempt TTL 1h, got %s", cfg.Receipts.AttemptTTL)
	}
}

func TestLoad_ParsesOverrides(t *testing.T) {
	t.Setenv("PLATFORM_BASE_URL", "https://api.awards.example")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("PLATFORM_HTTP_TIMEOUT", "2s")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "12345")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Polling.Interval != 500*time.Millisecond {
		t.Errorf("expected 500ms interval, got %s", cfg.Polling.Interval)
	}
	if cfg.Platform.HTTPTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %s", cfg.Platform.HTTPTimeout)
	}
	if cfg.Notify.AdminChatID != 12345 {
		t.Errorf("expected chat id 12345, got %d", cfg.Notify.AdminChatID)
	}
}

func TestLoad_BadDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("PLATFORM_BASE_URL", "https://api.awards.example")
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Polling.Interval != 3*time.Second {
		t.Errorf("expected fallback to 3s, got %s", cfg.Polling.Interval)
	}
}
