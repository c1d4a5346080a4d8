package interval

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/runwalk/internal/types"
)

func TestNewConfigRejectsInvalid(t *testing.T) {
	bad := [][2]int{{0, 60}, {60, 0}, {-1, 30}, {MaxPhaseSeconds + 1, 60}, {60, MaxPhaseSeconds + 1}}
	for _, c := range bad {
		if _, err := NewConfig(c[0], c[1]); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("NewConfig(%d, %d): expected ErrInvalidConfig, got %v", c[0], c[1], err)
		}
	}
}

func TestNewConfigAccessors(t *testing.T) {
	cfg, err := NewConfig(45, MaxPhaseSeconds)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seconds(types.PhaseRun) != 45 || cfg.Seconds(types.PhaseWalk) != MaxPhaseSeconds {
		t.Errorf("unexpected durations: %s", cfg)
	}
}

func TestBuiltinPresets(t *testing.T) {
	presets := BuiltinPresets()
	cfg, err := presets.Lookup(DefaultPreset)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RunSeconds() != 60 || cfg.WalkSeconds() != 90 {
		t.Errorf("unexpected default preset: %s", cfg)
	}
	if _, err := presets.Lookup("sprint"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "presets.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(presets.List()) != len(builtinPresets) {
		t.Errorf("expected builtin presets only, got %d", len(presets.List()))
	}
}

func TestSaveLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	tempo, _ := NewConfig(90, 45)
	classic, _ := NewConfig(75, 75)
	if err := SavePresets(path, []Preset{{Name: "tempo", Config: tempo}, {Name: "classic", Config: classic}}); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := presets.Lookup("tempo")
	if err != nil {
		t.Fatal(err)
	}
	if got != tempo {
		t.Errorf("expected %s, got %s", tempo, got)
	}
	overridden, _ := presets.Lookup("classic")
	if overridden != classic {
		t.Errorf("expected file preset to override builtin, got %s", overridden)
	}

	list := presets.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].Name > list[i].Name {
			t.Fatalf("presets not sorted: %s before %s", list[i-1].Name, list[i].Name)
		}
	}
}

func TestLoadPresetsRejectsInvalidEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	data := "presets:\n  - name: broken\n    run_seconds: 0\n    walk_seconds: 60\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPresets(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestUserPresets(t *testing.T) {
	presets := BuiltinPresets()
	if len(presets.UserPresets()) != 0 {
		t.Fatalf("expected no user presets, got %v", presets.UserPresets())
	}

	custom, err := NewConfig(45, 45)
	if err != nil {
		t.Fatal(err)
	}
	if err := presets.Add("even", custom); err != nil {
		t.Fatal(err)
	}
	override, err := NewConfig(90, 90)
	if err != nil {
		t.Fatal(err)
	}
	if err := presets.Add("classic", override); err != nil {
		t.Fatal(err)
	}

	user := presets.UserPresets()
	if len(user) != 2 || user[0].Name != "classic" || user[1].Name != "even" {
		t.Fatalf("unexpected user presets %v", user)
	}

	if err := presets.Add("", custom); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty name, got %v", err)
	}
	if err := presets.Add("zero", Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero config, got %v", err)
	}
}
