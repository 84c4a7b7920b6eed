package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken      string
	DatabaseURL        string
	LeaderboardRefresh time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:      strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LeaderboardRefresh: parseMinutes(strings.TrimSpace(os.Getenv("LEADERBOARD_REFRESH_MINUTES"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "whatnow.db"
	}

	if cfg.LeaderboardRefresh == 0 {
		cfg.LeaderboardRefresh = 15 * time.Minute
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseMinutes(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}
