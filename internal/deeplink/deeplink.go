// Package deeplink parses runwalk:// URLs into session start requests.
package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/user/runwalk/internal/interval"
)

// Scheme is the URL scheme handled by Parse.
const Scheme = "runwalk"

// ErrUnsupported is returned for URLs that are not start intents.
var ErrUnsupported = errors.New("unsupported deep link")

// Intent is a parsed start request. Preset is set for named presets;
// otherwise RunSeconds and WalkSeconds carry a custom configuration.
// A bare start leaves all three empty.
type Intent struct {
	Preset      string
	RunSeconds  int
	WalkSeconds int
}

// Custom reports whether the intent carries explicit durations.
func (i Intent) Custom() bool {
	return i.RunSeconds != 0 || i.WalkSeconds != 0
}

// Parse accepts runwalk://start, runwalk://start?preset=NAME and
// runwalk://start?run=S&walk=S.
func Parse(raw string) (Intent, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return Intent{}, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
	// runwalk://start puts the action in the host, runwalk:start in the opaque part.
	action := u.Host
	if action == "" {
		action = u.Opaque
	}
	if !strings.EqualFold(action, "start") || strings.Trim(u.Path, "/") != "" {
		return Intent{}, fmt.Errorf("%w: %q", ErrUnsupported, raw)
	}

	q := u.Query()
	preset := q.Get("preset")
	run, walk := q.Get("run"), q.Get("walk")
	switch {
	case preset != "" && (run != "" || walk != ""):
		return Intent{}, fmt.Errorf("%w: preset and custom durations are exclusive", ErrUnsupported)
	case preset != "":
		return Intent{Preset: preset}, nil
	case run != "" || walk != "":
		runSeconds, err := strconv.Atoi(run)
		if err != nil {
			return Intent{}, fmt.Errorf("parse run seconds: %w", interval.ErrInvalidConfig)
		}
		walkSeconds, err := strconv.Atoi(walk)
		if err != nil {
			return Intent{}, fmt.Errorf("parse walk seconds: %w", interval.ErrInvalidConfig)
		}
		return Intent{RunSeconds: runSeconds, WalkSeconds: walkSeconds}, nil
	default:
		return Intent{}, nil
	}
}

// Resolve turns an intent into a validated configuration, falling back
// to defaultPreset for a bare start.
func Resolve(intent Intent, presets *interval.Presets, defaultPreset string) (interval.Config, error) {
	if intent.Custom() {
		return interval.NewConfig(intent.RunSeconds, intent.WalkSeconds)
	}
	name := intent.Preset
	if name == "" {
		name = defaultPreset
	}
	return presets.Lookup(name)
}
