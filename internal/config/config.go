package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseURL   = "forgotten.db"
	defaultMediaPath     = "media"
	defaultSweepInterval = 15 * time.Minute
	noOwner              = -1
)

// Config keeps runtime settings for the bot. Values are read once at start.
type Config struct {
	TelegramToken string
	OwnerID       int64
	DatabaseURL   string
	MediaPath     string
	SweepInterval time.Duration
	Location      *time.Location
	LogLevel      slog.Level
}

// Load reads configuration from environment variables with sane defaults.
// FORGOTTEN_CONF may name an env file to load first; otherwise a .env file in
// the working directory is used when present.
func Load() (Config, error) {
	if path := strings.TrimSpace(os.Getenv("FORGOTTEN_CONF")); path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		OwnerID:       parseOwner(strings.TrimSpace(os.Getenv("OWNER_ID"))),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MediaPath:     strings.TrimSpace(os.Getenv("MEDIA_PATH")),
		SweepInterval: parseInterval(strings.TrimSpace(os.Getenv("SWEEP_INTERVAL_MINUTES"))),
		Location:      parseLocation(strings.TrimSpace(os.Getenv("TIMEZONE"))),
		LogLevel:      parseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}

	if cfg.MediaPath == "" {
		cfg.MediaPath = defaultMediaPath
	}

	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseOwner(raw string) int64 {
	if raw == "" {
		return noOwner
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("config: Invalid OWNER_ID, owner commands disabled", "value", raw, "error", err)
		return noOwner
	}
	return id
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	minutes, err := time.ParseDuration(raw + "m")
	if err != nil || minutes <= 0 {
		return 0
	}
	return minutes
}

func parseLocation(raw string) *time.Location {
	if raw == "" || raw == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		slog.Warn("config: Invalid TIMEZONE, using local time", "value", raw, "error", err)
		return time.Local
	}
	return loc
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if raw == "" {
		return slog.LevelInfo
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}
