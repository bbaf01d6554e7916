// Package config loads runtime settings from the environment, optionally
// overlaid by a YAML file named in BROADSIDE_CONFIG.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the bot and the arena.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	JournalPath string `yaml:"journal_path"` // empty disables the journal

	MaxExpansions int `yaml:"max_expansions"` // per search, 0 = unbounded
	MaxTurns      int `yaml:"max_turns"`      // per search, 0 = unbounded
	ExploreRadius int `yaml:"explore_radius"`

	// Arena only.
	Seed           int64  `yaml:"seed"` // 0 = random
	ArenaTurns     int    `yaml:"arena_turns"`
	UnitsPerPlayer int    `yaml:"units_per_player"`
	TurnInterval   int    `yaml:"turn_interval_ms"` // pause between arena turns
	APIPort        int    `yaml:"api_port"`         // 0 disables the HTTP API
	AdminKey       string `yaml:"admin_key"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       "info",
		ExploreRadius:  3,
		ArenaTurns:     200,
		UnitsPerPlayer: 2,
	}
}

// Load builds the configuration: defaults, then the YAML file if any, then
// environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("BROADSIDE_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.LogLevel = envOrDefault("BROADSIDE_LOG_LEVEL", cfg.LogLevel)
	cfg.JournalPath = envOrDefault("BROADSIDE_JOURNAL", cfg.JournalPath)
	cfg.MaxExpansions = envIntOrDefault("BROADSIDE_MAX_EXPANSIONS", cfg.MaxExpansions)
	cfg.MaxTurns = envIntOrDefault("BROADSIDE_MAX_TURNS", cfg.MaxTurns)
	cfg.ExploreRadius = envIntOrDefault("BROADSIDE_EXPLORE_RADIUS", cfg.ExploreRadius)
	cfg.Seed = int64(envIntOrDefault("BROADSIDE_SEED", int(cfg.Seed)))
	cfg.ArenaTurns = envIntOrDefault("BROADSIDE_ARENA_TURNS", cfg.ArenaTurns)
	cfg.UnitsPerPlayer = envIntOrDefault("BROADSIDE_UNITS_PER_PLAYER", cfg.UnitsPerPlayer)
	cfg.TurnInterval = envIntOrDefault("BROADSIDE_TURN_INTERVAL_MS", cfg.TurnInterval)
	cfg.APIPort = envIntOrDefault("BROADSIDE_API_PORT", cfg.APIPort)
	cfg.AdminKey = envOrDefault("BROADSIDE_ADMIN_KEY", cfg.AdminKey)

	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.MaxExpansions < 0 || c.MaxTurns < 0 {
		return fmt.Errorf("search limits must not be negative (expansions=%d turns=%d)", c.MaxExpansions, c.MaxTurns)
	}
	if c.ExploreRadius <= 0 {
		return fmt.Errorf("explore radius must be positive, got %d", c.ExploreRadius)
	}
	if c.ArenaTurns <= 0 || c.TurnInterval < 0 {
		return fmt.Errorf("arena needs a positive turn cap and a non-negative interval (turns=%d interval=%d)", c.ArenaTurns, c.TurnInterval)
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("api port out of range: %d", c.APIPort)
	}
	if c.UnitsPerPlayer < 1 || c.UnitsPerPlayer > 5 {
		return fmt.Errorf("units per player must be 1..5, got %d", c.UnitsPerPlayer)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel with slog's level syntax ("debug", "WARN", "INFO+2").
// An empty level means info.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return l, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
