package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	TelegramBotToken string
	TelegramChatID   int64
	TelegramEnabled  bool
	DashboardURL     string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	DatabaseURL string
	RedisURL    string

	PricePollSecs int
	HeartbeatSecs int

	AdminEmail    string
	AdminPassword string

	FeedURL              string
	FeedReconnectBaseMS  int
	FeedReconnectRetries int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		VAPIDPublicKey:   os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:  os.Getenv("VAPID_PRIVATE_KEY"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		FeedURL:          strings.TrimSpace(os.Getenv("FEED_URL")),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram alerts will be disabled")
	}

	cfg.TelegramChatID = 1118349343
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n != 0 {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, using default", v)
		}
	}

	cfg.TelegramEnabled = true
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_ENABLED")); v != "" {
		cfg.TelegramEnabled = strings.EqualFold(v, "true")
	}
	if cfg.TelegramBotToken == "" {
		cfg.TelegramEnabled = false
	}

	cfg.DashboardURL = strings.TrimSpace(os.Getenv("DASHBOARD_URL"))
	if cfg.DashboardURL == "" {
		cfg.DashboardURL = "http://localhost:" + cfg.Port
	}

	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		log.Println("Warning: VAPID keys not set, web push will be disabled")
	}

	cfg.VAPIDSubscriber = strings.TrimSpace(os.Getenv("VAPID_SUBSCRIBER"))
	if cfg.VAPIDSubscriber == "" {
		cfg.VAPIDSubscriber = "mailto:admin@example.com"
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, signal archiving disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.PricePollSecs = 10
	if v := strings.TrimSpace(os.Getenv("PRICE_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PricePollSecs = n
		}
	}

	cfg.HeartbeatSecs = 30
	if v := strings.TrimSpace(os.Getenv("HEARTBEAT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HeartbeatSecs = n
		}
	}

	cfg.FeedReconnectBaseMS = 1000
	if v := strings.TrimSpace(os.Getenv("FEED_RECONNECT_BASE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FeedReconnectBaseMS = n
		}
	}

	cfg.FeedReconnectRetries = 10
	if v := strings.TrimSpace(os.Getenv("FEED_RECONNECT_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FeedReconnectRetries = n
		}
	}

	return cfg
}
