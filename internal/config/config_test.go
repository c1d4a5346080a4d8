package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	t.Setenv("RUNWALK_DATA_DIR", "")
	t.Setenv("RUNWALK_LOG_LEVEL", "")
	t.Setenv("RUNWALK_TELEGRAM_TOKEN", "")
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func writeTestConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := Save(path, cfg); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
}

func TestLoad_WritesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults were not written: %v", err)
	}
	if cfg.TickMillis != 250 || cfg.PublishIntervalSeconds != 1 || cfg.StaleAfterSeconds != 5 {
		t.Errorf("unexpected timing defaults: %+v", cfg)
	}
	if cfg.DefaultPreset != "classic" {
		t.Errorf("expected classic default preset, got %q", cfg.DefaultPreset)
	}
	if !cfg.HTTP.Enabled || cfg.HTTP.Listen != "127.0.0.1:8765" {
		t.Errorf("unexpected http defaults: %+v", cfg.HTTP)
	}
	if cfg.TickInterval() != 250*time.Millisecond || cfg.PublishInterval() != time.Second || cfg.StaleAfter() != 5*time.Second {
		t.Errorf("unexpected durations %v %v %v", cfg.TickInterval(), cfg.PublishInterval(), cfg.StaleAfter())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := tempConfigPath(t)
	t.Setenv("RUNWALK_DATA_DIR", "/srv/runwalk")
	t.Setenv("RUNWALK_LOG_LEVEL", "debug")
	t.Setenv("RUNWALK_TELEGRAM_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/srv/runwalk" || cfg.LogLevel != "debug" || cfg.Telegram.Token != "env-token" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.SnapshotPath() != "/srv/runwalk/snapshot.json" {
		t.Errorf("unexpected snapshot path %s", cfg.SnapshotPath())
	}
	if cfg.PresetsPath() != "/srv/runwalk/presets.yaml" {
		t.Errorf("unexpected presets path %s", cfg.PresetsPath())
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := Defaults()
	original.DataDir = "/tmp/test-data"
	original.LogLevel = "debug"
	original.TickMillis = 100
	original.PresetsFile = "/etc/runwalk/presets.yaml"
	original.Cues.Bell = true
	original.Telegram.Token = "bot-token-456"
	original.Telegram.ChatID = -100123

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir mismatch: %v != %v", loaded.DataDir, original.DataDir)
	}
	if loaded.TickMillis != 100 {
		t.Errorf("TickMillis mismatch: %v", loaded.TickMillis)
	}
	if loaded.PresetsPath() != "/etc/runwalk/presets.yaml" {
		t.Errorf("PresetsPath mismatch: %v", loaded.PresetsPath())
	}
	if !loaded.Cues.Bell {
		t.Error("expected bell cue enabled")
	}
	if loaded.Telegram.Token != "bot-token-456" || loaded.Telegram.ChatID != -100123 {
		t.Errorf("Telegram mismatch: %+v", loaded.Telegram)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	if err := Save(path, &Config{LogLevel: "info"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.json")
	if err := Save(path, &Config{LogLevel: "warn"}); err != nil {
		t.Fatalf("Save should create parent directory, got: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file should exist: %v", err)
	}
}

func TestListValues(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "bot-token-abcd"

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if flat["telegram.token"] != "bot-token-abcd" {
		t.Errorf("expected unmasked telegram.token, got %v", flat["telegram.token"])
	}
	// JSON numbers are float64
	if flat["tick_millis"] != float64(250) {
		t.Errorf("expected tick_millis=250, got %v", flat["tick_millis"])
	}

	masked, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if masked["telegram.token"] != "***abcd" {
		t.Errorf("expected masked telegram.token, got %v", masked["telegram.token"])
	}
	if masked["http.listen"] != "127.0.0.1:8765" {
		t.Errorf("expected http.listen untouched, got %v", masked["http.listen"])
	}
}

func TestGetValue(t *testing.T) {
	path := tempConfigPath(t)
	cfg := Defaults()
	cfg.LogLevel = "debug"
	cfg.HTTP.Listen = ":9000"
	writeTestConfig(t, path, cfg)

	v, err := GetValue(path, "log_level")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "debug" {
		t.Errorf("expected log_level=debug, got %v", v)
	}

	v, err = GetValue(path, "http.listen")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != ":9000" {
		t.Errorf("expected http.listen=:9000, got %v", v)
	}

	_, err = GetValue(path, "nonexistent.key")
	if err == nil || err.Error() != "unknown config key: nonexistent.key" {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestGetValue_CreatesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	v, err := GetValue(path, "default_preset")
	if err != nil {
		t.Fatalf("GetValue on new config failed: %v", err)
	}
	if v != "classic" {
		t.Errorf("expected default_preset=classic, got %v", v)
	}
}

func TestSetValue_Types(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, Defaults())

	if err := SetValue(path, "stale_after_seconds", "8"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := SetValue(path, "cues.bell", "true"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if err := SetValue(path, "default_preset", "galloway"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StaleAfterSeconds != 8 {
		t.Errorf("expected stale_after_seconds=8, got %d", cfg.StaleAfterSeconds)
	}
	if !cfg.Cues.Bell {
		t.Error("expected cues.bell=true")
	}
	if cfg.DefaultPreset != "galloway" {
		t.Errorf("expected default_preset=galloway, got %q", cfg.DefaultPreset)
	}
	if cfg.HTTP.Listen != "127.0.0.1:8765" {
		t.Errorf("expected other values preserved, got %q", cfg.HTTP.Listen)
	}
}

func TestSetValue_UnknownKeyPreserved(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, Defaults())

	if err := SetValue(path, "custom.setting", "value"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	v, err := GetValue(path, "custom.setting")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if v != "value" {
		t.Errorf("expected custom.setting=value, got %v", v)
	}
}

func TestSetValue_NonexistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "config.json")
	if err := SetValue(path, "log_level", "debug"); err == nil {
		t.Fatal("expected error for nonexistent file, got nil")
	}
}

func TestSetValue_StringStaysString(t *testing.T) {
	path := tempConfigPath(t)
	writeTestConfig(t, path, Defaults())

	if err := SetValue(path, "telegram.token", "12345"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed after numeric-looking token: %v", err)
	}
	if cfg.Telegram.Token != "12345" {
		t.Errorf("expected token 12345, got %q", cfg.Telegram.Token)
	}
}
