package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/go-cmp/cmp"
)

var envKeys = []string{
	"CHESS_CONFIG_FILE", "PLAYER_COLOR", "THINK_DELAY_MS", "RANDOM_SEED", "HTTP_ADDR", "PUSH_ADDR",
	"ARCHIVE_BACKEND", "REDIS_URL", "DATABASE_URL", "ARCHIVE_TTL",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "LOG_TO_CONSOLE", "LOG_TO_FILE", "LOG_CALLER",
}

// isolate clears the variables Load reads and points xdg at an empty dir.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	// xdg caches its paths at init.
	xdg.Reload()
	t.Cleanup(xdg.Reload)
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Defaults()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
	if cfg.ThinkDelay() != 750*time.Millisecond {
		t.Fatalf("ThinkDelay = %v", cfg.ThinkDelay())
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
player_color: black
think_delay_ms: 100
random_seed: 42
archive:
  backend: redis
  redis_url: redis://localhost:6379/2
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHESS_CONFIG_FILE", path)
	t.Setenv("THINK_DELAY_MS", "0")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("PUSH_ADDR", "127.0.0.1:8099")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != path || cfg.PlayerColor != "black" || cfg.RandomSeed != 42 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.PushAddr != "127.0.0.1:8099" {
		t.Fatalf("PUSH_ADDR not applied: %q", cfg.PushAddr)
	}
	if cfg.ThinkDelayMS != 0 {
		t.Fatalf("env should override file think delay, got %d", cfg.ThinkDelayMS)
	}
	if cfg.Archive.Backend != "redis" || cfg.Archive.RedisURL != "redis://localhost:6379/2" {
		t.Fatalf("archive config %+v", cfg.Archive)
	}
	if cfg.Archive.TTL() != 24*time.Hour {
		t.Fatalf("ttl default lost: %v", cfg.Archive.TTL())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || !cfg.Log.Caller || !cfg.Log.ToConsole {
		t.Fatalf("log config %+v", cfg.Log)
	}
}

func TestLoad_XDGSearch(t *testing.T) {
	isolate(t)
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, "cheese-solo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("player_color: b\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	xdg.Reload()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PlayerColor != "black" {
		t.Fatalf("xdg config not found, player color %q (file %q)", cfg.PlayerColor, cfg.File)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"bad color":       func(c *AppConfig) { c.PlayerColor = "green" },
		"negative delay":  func(c *AppConfig) { c.ThinkDelayMS = -1 },
		"redis no url":    func(c *AppConfig) { c.Archive.Backend = "redis" },
		"postgres no url": func(c *AppConfig) { c.Archive.Backend = "postgres" },
		"unknown backend": func(c *AppConfig) { c.Archive.Backend = "s3" },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	cfg := Defaults()
	cfg.Archive.Backend = ""
	if err := cfg.Validate(); err != nil || cfg.Archive.Backend != "none" {
		t.Fatalf("empty backend should mean none: %v %q", err, cfg.Archive.Backend)
	}
}
