package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesWatchdogDefault(t *testing.T) {
	path := writeTemp(t, "trunking:\n  trunk_enable: true\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Trunking.WatchdogMs != DefaultHeadlessMs {
		t.Errorf("watchdog ms = %d, want %d", c.Trunking.WatchdogMs, DefaultHeadlessMs)
	}
	if !c.Trunking.Enable {
		t.Error("expected trunking enabled")
	}
}

func TestLoadClampsWatchdogCadence(t *testing.T) {
	path := writeTemp(t, "trunking:\n  p25_watchdog_ms: 5000\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Trunking.WatchdogMs != MaxWatchdogMs {
		t.Errorf("watchdog ms = %d, want clamped %d", c.Trunking.WatchdogMs, MaxWatchdogMs)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAMLErrors(t *testing.T) {
	path := writeTemp(t, "trunking: [this is not a map]\n  broken: yes\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
