package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/cheese-solo/internal/config"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	path := filepath.Join(t.TempDir(), "nested", "session.log")
	err := Init(config.LogConfig{Level: "debug", Format: "json", ToFile: true, File: path})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Debug("solo_test_event")
	Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"solo_test_event"`) || !strings.Contains(string(raw), `"level":"debug"`) {
		t.Fatalf("unexpected log output %q", raw)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	path := filepath.Join(t.TempDir(), "session.log")
	if err := Init(config.LogConfig{Level: "warn", Format: "legacy", ToFile: true, File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("hidden_event")
	L().Warn("shown_event")
	Sync()

	raw, _ := os.ReadFile(path)
	out := string(raw)
	if strings.Contains(out, "hidden_event") || !strings.Contains(out, "shown_event") {
		t.Fatalf("level filter not applied: %q", out)
	}
	if !strings.Contains(out, " | WARN | ") {
		t.Fatalf("legacy encoder separator missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("WARNING").String() != "warn" || parseLevel("bogus").String() != "info" {
		t.Fatalf("unexpected level mapping")
	}
}
