package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("TELEGRAM_ENABLED", "")
	t.Setenv("DASHBOARD_URL", "")
	t.Setenv("VAPID_PUBLIC_KEY", "")
	t.Setenv("VAPID_PRIVATE_KEY", "")
	t.Setenv("VAPID_SUBSCRIBER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PRICE_POLL_SECS", "")
	t.Setenv("HEARTBEAT_SECS", "")
	t.Setenv("FEED_URL", "")
	t.Setenv("FEED_RECONNECT_BASE_MS", "")
	t.Setenv("FEED_RECONNECT_RETRIES", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.TelegramEnabled {
		t.Fatal("telegram should be disabled without a bot token")
	}
	if cfg.TelegramChatID != 1118349343 {
		t.Fatalf("unexpected default chat id: %d", cfg.TelegramChatID)
	}
	if cfg.DashboardURL != "http://localhost:8080" {
		t.Fatalf("unexpected default dashboard url: %s", cfg.DashboardURL)
	}
	if cfg.VAPIDSubscriber != "mailto:admin@example.com" {
		t.Fatalf("unexpected default subscriber: %s", cfg.VAPIDSubscriber)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.PricePollSecs != 10 || cfg.HeartbeatSecs != 30 {
		t.Fatalf("unexpected interval defaults: poll=%d heartbeat=%d", cfg.PricePollSecs, cfg.HeartbeatSecs)
	}
	if cfg.FeedReconnectBaseMS != 1000 || cfg.FeedReconnectRetries != 10 {
		t.Fatalf("unexpected feed reconnect defaults: base=%d retries=%d", cfg.FeedReconnectBaseMS, cfg.FeedReconnectRetries)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("DASHBOARD_URL", "https://dash.example.com")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("VAPID_SUBSCRIBER", "mailto:ops@example.com")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("PRICE_POLL_SECS", "5")
	t.Setenv("HEARTBEAT_SECS", "15")
	t.Setenv("FEED_URL", "wss://feed.example.com/stream")
	t.Setenv("FEED_RECONNECT_BASE_MS", "250")
	t.Setenv("FEED_RECONNECT_RETRIES", "3")

	cfg := Load()
	if cfg.Port != "9000" || cfg.TelegramBotToken != "token" || cfg.TelegramChatID != 42 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.TelegramEnabled {
		t.Fatal("telegram should be enabled")
	}
	if cfg.DashboardURL != "https://dash.example.com" || cfg.VAPIDSubscriber != "mailto:ops@example.com" {
		t.Fatalf("unexpected urls: %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected storage config: %+v", cfg)
	}
	if cfg.PricePollSecs != 5 || cfg.HeartbeatSecs != 15 {
		t.Fatalf("unexpected intervals: %+v", cfg)
	}
	if cfg.FeedURL != "wss://feed.example.com/stream" || cfg.FeedReconnectBaseMS != 250 || cfg.FeedReconnectRetries != 3 {
		t.Fatalf("unexpected feed config: %+v", cfg)
	}

	t.Setenv("TELEGRAM_CHAT_ID", "bad")
	t.Setenv("PRICE_POLL_SECS", "bad")
	t.Setenv("HEARTBEAT_SECS", "-1")
	t.Setenv("FEED_RECONNECT_BASE_MS", "bad")
	t.Setenv("FEED_RECONNECT_RETRIES", "0")
	cfg = Load()
	if cfg.TelegramChatID != 1118349343 {
		t.Fatalf("invalid chat id should fall back to default, got %d", cfg.TelegramChatID)
	}
	if cfg.PricePollSecs != 10 || cfg.HeartbeatSecs != 30 {
		t.Fatalf("invalid intervals should fall back to defaults: %+v", cfg)
	}
	if cfg.FeedReconnectBaseMS != 1000 || cfg.FeedReconnectRetries != 10 {
		t.Fatalf("invalid feed reconnect values should fall back to defaults: %+v", cfg)
	}
}

func TestTelegramEnabledOverride(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_ENABLED", "false")

	cfg := Load()
	if cfg.TelegramEnabled {
		t.Fatal("TELEGRAM_ENABLED=false should disable alerts even with a token")
	}
}
