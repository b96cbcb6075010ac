// Package config loads server configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	RedisURL    string `yaml:"redis_url" validate:"required"`
	DatabaseURL string `yaml:"database_url"`

	// Session rules.
	AbortMoveThreshold int           `yaml:"abort_move_threshold" validate:"gte=0"`
	DrawCooldownMoves  int           `yaml:"draw_cooldown_moves" validate:"gte=0"`
	DefaultBaseTime    time.Duration `yaml:"default_base_time" validate:"gt=0"`
	DefaultIncrement   time.Duration `yaml:"default_increment" validate:"gte=0"`

	MaxConcurrentGames int `yaml:"max_concurrent_games" validate:"gt=0"`
}

func defaults() *AppConfig {
	return &AppConfig{
		AbortMoveThreshold: 2,
		DrawCooldownMoves:  3,
		DefaultBaseTime:    10 * time.Minute,
		DefaultIncrement:   5 * time.Second,
		MaxConcurrentGames: 500,
	}
}

// Load reads CONFIG_FILE (if set), then applies environment overrides and
// validates the result.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ABORT_MOVE_THRESHOLD")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AbortMoveThreshold = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DRAW_COOLDOWN_MOVES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DrawCooldownMoves = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_BASE_TIME")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.DefaultBaseTime = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_INCREMENT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.DefaultIncrement = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_CONCURRENT_GAMES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentGames = n
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
