package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port             int
	NatsURL          string
	NatsToken        string
	DatabaseURL      string
	LogLevel         string
	LogFile          string
	AnthropicAPIKey  string
	AnthropicModel   string
	NotionToken      string
	NotionDatabaseID string
	APIToken         string
	RescanQuiet      time.Duration // quiet interval before a changed page is rescanned
	SeenTTL          time.Duration // how long a detected response stays marked as processed
}

func Load() Config {
	return Config{
		Port:             envInt("SCRIBE_PORT", 8760),
		NatsURL:          envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:        envStr("NATS_TOKEN", ""),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		LogFile:          envStr("LOG_FILE", ""),
		AnthropicAPIKey:  envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   envStr("SCRIBE_MODEL", "claude-sonnet-4-20250514"),
		NotionToken:      envStr("NOTION_TOKEN", ""),
		NotionDatabaseID: envStr("NOTION_DATABASE_ID", ""),
		APIToken:         envStr("SCRIBE_API_TOKEN", ""),
		RescanQuiet:      envDuration("SCRIBE_RESCAN_QUIET", 500*time.Millisecond),
		SeenTTL:          envDuration("SCRIBE_SEEN_TTL", time.Hour),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
