// Package config loads the runwalk JSON configuration file, applies
// environment overrides and supports dot-key get/set for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	DataDir                string `json:"data_dir"`
	LogLevel               string `json:"log_level"`
	TickMillis             int    `json:"tick_millis"`
	PublishIntervalSeconds int    `json:"publish_interval_seconds"`
	StaleAfterSeconds      int    `json:"stale_after_seconds"`
	DefaultPreset          string `json:"default_preset"`
	PresetsFile            string `json:"presets_file"`
	Cues                   struct {
		Voice   bool `json:"voice"`
		Haptics bool `json:"haptics"`
		Bell    bool `json:"bell"`
	} `json:"cues"`
	HTTP struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Telegram struct {
		Token  string `json:"token"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
}

// Defaults returns the configuration written on first run.
func Defaults() *Config {
	cfg := &Config{
		DataDir:                filepath.Join(os.Getenv("HOME"), ".runwalk"),
		LogLevel:               "info",
		TickMillis:             250,
		PublishIntervalSeconds: 1,
		StaleAfterSeconds:      5,
		DefaultPreset:          "classic",
	}
	cfg.Cues.Voice = true
	cfg.Cues.Haptics = true
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = "127.0.0.1:8765"
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if dataDir := os.Getenv("RUNWALK_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level := os.Getenv("RUNWALK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if tgToken := os.Getenv("RUNWALK_TELEGRAM_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

// TickInterval returns the controller tick period.
func (c *Config) TickInterval() time.Duration {
	if c.TickMillis <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.TickMillis) * time.Millisecond
}

// PublishInterval returns the snapshot heartbeat period.
func (c *Config) PublishInterval() time.Duration {
	if c.PublishIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.PublishIntervalSeconds) * time.Second
}

// StaleAfter returns how old a snapshot may be before the companion
// ignores it.
func (c *Config) StaleAfter() time.Duration {
	if c.StaleAfterSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

// SnapshotPath is the shared snapshot file read by companions.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "snapshot.json")
}

// HistoryPath is the SQLite workout history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// PresetsPath is the user presets file, defaulting to presets.yaml in the
// data directory.
func (c *Config) PresetsPath() string {
	if c.PresetsFile != "" {
		return c.PresetsFile
	}
	return filepath.Join(c.DataDir, "presets.yaml")
}

// PIDPath is where the running daemon records its process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.DataDir, "runwalk.pid")
}

func writeDefaults(path string, cfg *Config) error {
	if err := Save(path, cfg); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg to its nested JSON map form.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// ListValues returns cfg flattened to dot keys, optionally with secrets
// masked.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// readRaw returns the file's contents as a flat map so keys unknown to
// Config survive a get/set round trip.
func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return Flatten(m), nil
}

// GetValue returns the value stored under a dot key. The file is created
// with defaults if it does not exist.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	flat, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue stores value under a dot key. Existing string settings stay
// strings; otherwise values that parse as JSON scalars (numbers, booleans)
// are stored typed and anything else is a string.
func SetValue(path, key, value string) error {
	flat, err := readRaw(path)
	if err != nil {
		return err
	}

	key = strings.TrimSpace(key)
	var parsed any
	if _, isString := flat[key].(string); isString {
		parsed = value
	} else if err := json.Unmarshal([]byte(value), &parsed); err != nil || isContainer(parsed) {
		parsed = value
	}
	flat[key] = parsed

	data, err := json.MarshalIndent(Unflatten(flat), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFile(path, data)
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}
