package interval

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultPreset is used by the "start default workout" intent.
const DefaultPreset = "classic"

// ErrUnknownPreset is returned when a preset name is not registered.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named interval configuration.
type Preset struct {
	Name   string
	Config Config
}

// builtinPresets are always available and can be overridden by name from
// the presets file.
var builtinPresets = map[string][2]int{
	"classic":   {60, 90},
	"beginner":  {30, 90},
	"steady":    {120, 60},
	"endurance": {300, 60},
	"galloway":  {240, 30},
}

type yamlPreset struct {
	Name        string `yaml:"name"`
	RunSeconds  int    `yaml:"run_seconds"`
	WalkSeconds int    `yaml:"walk_seconds"`
}

type yamlPresets struct {
	Presets []yamlPreset `yaml:"presets"`
}

// Presets is a lookup of named configurations.
type Presets struct {
	byName map[string]Config
}

// BuiltinPresets returns the built-in preset set.
func BuiltinPresets() *Presets {
	p := &Presets{byName: make(map[string]Config, len(builtinPresets))}
	for name, durations := range builtinPresets {
		cfg, err := NewConfig(durations[0], durations[1])
		if err != nil {
			panic(fmt.Sprintf("builtin preset %s: %v", name, err))
		}
		p.byName[name] = cfg
	}
	return p
}

// LoadPresets returns the built-in presets merged with user presets read
// from a YAML file. A missing file is not an error.
func LoadPresets(path string) (*Presets, error) {
	presets := BuiltinPresets()
	if path == "" {
		return presets, nil
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return presets, nil
		}
		return presets, fmt.Errorf("read presets file: %w", err)
	}

	var fileData yamlPresets
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return presets, fmt.Errorf("parse presets yaml: %w", err)
	}

	for _, entry := range fileData.Presets {
		if entry.Name == "" {
			return presets, fmt.Errorf("preset without name in %s", path)
		}
		cfg, err := NewConfig(entry.RunSeconds, entry.WalkSeconds)
		if err != nil {
			return presets, fmt.Errorf("preset %s: %w", entry.Name, err)
		}
		presets.byName[entry.Name] = cfg
	}
	return presets, nil
}

// SavePresets writes user presets to a YAML file.
func SavePresets(path string, presets []Preset) error {
	fileData := yamlPresets{Presets: make([]yamlPreset, 0, len(presets))}
	for _, preset := range presets {
		fileData.Presets = append(fileData.Presets, yamlPreset{
			Name:        preset.Name,
			RunSeconds:  preset.Config.RunSeconds(),
			WalkSeconds: preset.Config.WalkSeconds(),
		})
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal presets yaml: %w", err)
	}
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write presets file: %w", err)
	}
	return nil
}

// Lookup returns the configuration registered under name.
func (p *Presets) Lookup(name string) (Config, error) {
	cfg, ok := p.byName[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return cfg, nil
}

// List returns all presets sorted by name.
func (p *Presets) List() []Preset {
	out := make([]Preset, 0, len(p.byName))
	for name, cfg := range p.byName {
		out = append(out, Preset{Name: name, Config: cfg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UserPresets returns the presets that are not identical to a built-in
// one: those added or overridden by the presets file.
func (p *Presets) UserPresets() []Preset {
	var out []Preset
	for _, preset := range p.List() {
		if d, ok := builtinPresets[preset.Name]; ok &&
			d[0] == preset.Config.RunSeconds() && d[1] == preset.Config.WalkSeconds() {
			continue
		}
		out = append(out, preset)
	}
	return out
}

// Add registers or replaces a preset.
func (p *Presets) Add(name string, cfg Config) error {
	if name == "" {
		return fmt.Errorf("%w: preset name is required", ErrInvalidConfig)
	}
	if !cfg.Valid() {
		return fmt.Errorf("preset %s: %w", name, ErrInvalidConfig)
	}
	p.byName[name] = cfg
	return nil
}
