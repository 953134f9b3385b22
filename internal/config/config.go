package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const configRelPath = "cheese-solo/config.yaml"

type AppConfig struct {
	PlayerColor  string `yaml:"player_color"`
	ThinkDelayMS int    `yaml:"think_delay_ms"`
	// RandomSeed pins the computer's choices; 0 seeds from the clock.
	RandomSeed int64  `yaml:"random_seed"`
	HTTPAddr   string `yaml:"http_addr"`
	// PushAddr serves snapshot pushes over websocket; empty disables it.
	PushAddr string `yaml:"push_addr"`

	Archive ArchiveConfig `yaml:"archive"`
	Log     LogConfig     `yaml:"log"`

	// File is the YAML file that was loaded, if any.
	File string `yaml:"-"`
}

type ArchiveConfig struct {
	// Backend is one of none, memory, redis, postgres.
	Backend     string `yaml:"backend"`
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
	TTLSec      int    `yaml:"ttl_sec"`
	RecentLimit int    `yaml:"recent_limit"`
}

type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	ToConsole bool   `yaml:"to_console"`
	ToFile    bool   `yaml:"to_file"`
	File      string `yaml:"file"`
	Caller    bool   `yaml:"caller"`
}

func (c *AppConfig) ThinkDelay() time.Duration {
	return time.Duration(c.ThinkDelayMS) * time.Millisecond
}

func (a ArchiveConfig) TTL() time.Duration {
	return time.Duration(a.TTLSec) * time.Second
}

func Defaults() *AppConfig {
	return &AppConfig{
		PlayerColor:  "white",
		ThinkDelayMS: 750,
		Archive: ArchiveConfig{
			Backend:     "memory",
			TTLSec:      86400,
			RecentLimit: 10,
		},
		Log: LogConfig{
			Level:     "info",
			Format:    "legacy",
			ToConsole: true,
			File:      "logs/chess-session.log",
		},
	}
}

// Load applies defaults, then the YAML file (CHESS_CONFIG_FILE or the xdg
// config dirs), then environment overrides.
func Load() (*AppConfig, error) {
	cfg := Defaults()

	path := strings.TrimSpace(os.Getenv("CHESS_CONFIG_FILE"))
	if path == "" {
		if found, err := xdg.SearchConfigFile(configRelPath); err == nil {
			path = found
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("PLAYER_COLOR")); v != "" {
		c.PlayerColor = v
	}
	if v := strings.TrimSpace(os.Getenv("THINK_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.ThinkDelayMS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RANDOM_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.RandomSeed = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		c.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_ADDR")); v != "" {
		c.PushAddr = v
	}

	if v := strings.TrimSpace(os.Getenv("ARCHIVE_BACKEND")); v != "" {
		c.Archive.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.Archive.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.Archive.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ARCHIVE_TTL")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Archive.TTLSec = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		c.Log.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FILE")); v != "" {
		c.Log.File = v
	}
	parseBool("LOG_TO_CONSOLE", &c.Log.ToConsole)
	parseBool("LOG_TO_FILE", &c.Log.ToFile)
	parseBool("LOG_CALLER", &c.Log.Caller)
}

func parseBool(key string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (c *AppConfig) Validate() error {
	c.PlayerColor = strings.ToLower(strings.TrimSpace(c.PlayerColor))
	switch c.PlayerColor {
	case "white", "black":
	case "w":
		c.PlayerColor = "white"
	case "b":
		c.PlayerColor = "black"
	default:
		return fmt.Errorf("PLAYER_COLOR must be white or black, got %q", c.PlayerColor)
	}
	if c.ThinkDelayMS < 0 {
		return errors.New("THINK_DELAY_MS must not be negative")
	}

	c.Archive.Backend = strings.ToLower(strings.TrimSpace(c.Archive.Backend))
	switch c.Archive.Backend {
	case "", "none":
		c.Archive.Backend = "none"
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Archive.RedisURL) == "" {
			return errors.New("REDIS_URL is required for the redis archive")
		}
	case "postgres":
		if strings.TrimSpace(c.Archive.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres archive")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_BACKEND %q", c.Archive.Backend)
	}
	if c.Archive.RecentLimit <= 0 {
		c.Archive.RecentLimit = 10
	}
	return nil
}
