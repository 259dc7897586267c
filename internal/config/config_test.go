package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	setRequired := func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "token-123")
		t.Setenv("ADMIN_CHAT_ID", "-100200300")
		t.Setenv("ADMIN_USER_IDS", "11, 22,33")
	}

	t.Run("loads required and defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.AdminChatID != -100200300 {
			t.Fatalf("unexpected admin chat id %d", cfg.AdminChatID)
		}
		if !cfg.AdminUserIDs[22] || len(cfg.AdminUserIDs) != 3 {
			t.Fatalf("unexpected admin set %v", cfg.AdminUserIDs)
		}
		if cfg.MaxSendRetries != defaultMaxSendRetries {
			t.Fatalf("expected default retries, got %d", cfg.MaxSendRetries)
		}
		if cfg.HeartbeatInterval >= cfg.HeartbeatTimeout {
			t.Fatalf("heartbeat interval must be below timeout")
		}
	})

	t.Run("missing token fails", func(t *testing.T) {
		setRequired(t)
		t.Setenv("TELEGRAM_BOT_TOKEN", "")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing token")
		}
	})

	t.Run("bad admin id fails", func(t *testing.T) {
		setRequired(t)
		t.Setenv("ADMIN_USER_IDS", "11,abc")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for bad admin id")
		}
	})

	t.Run("heartbeat interval must undercut timeout", func(t *testing.T) {
		setRequired(t)
		t.Setenv("HEARTBEAT_INTERVAL", "2m")
		t.Setenv("HEARTBEAT_TIMEOUT", "1m")

		if _, err := Load(); err == nil {
			t.Fatal("expected error for interval >= timeout")
		}
	})

	t.Run("duration override", func(t *testing.T) {
		setRequired(t)
		t.Setenv("RETRY_BASE_DELAY", "500ms")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.RetryBaseDelay != 500*time.Millisecond {
			t.Fatalf("expected 500ms, got %v", cfg.RetryBaseDelay)
		}
	})
}
