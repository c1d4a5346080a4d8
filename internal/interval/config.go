// Package interval holds the run/walk interval configuration and the
// deadline-driven phase state machine.
package interval

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/runwalk/internal/types"
)

// MaxPhaseSeconds bounds a single custom phase.
const MaxPhaseSeconds = 1800

// ErrInvalidConfig is returned for non-positive or out-of-range durations.
var ErrInvalidConfig = errors.New("invalid interval configuration")

// Config describes one workout's run and walk durations. It is immutable
// once constructed; use NewConfig so the bounds are checked.
type Config struct {
	runSeconds  int
	walkSeconds int
}

// NewConfig validates and returns a Config.
func NewConfig(runSeconds, walkSeconds int) (Config, error) {
	if runSeconds <= 0 || walkSeconds <= 0 {
		return Config{}, fmt.Errorf("%w: durations must be positive (run=%d, walk=%d)", ErrInvalidConfig, runSeconds, walkSeconds)
	}
	if runSeconds > MaxPhaseSeconds || walkSeconds > MaxPhaseSeconds {
		return Config{}, fmt.Errorf("%w: durations must not exceed %ds (run=%d, walk=%d)", ErrInvalidConfig, MaxPhaseSeconds, runSeconds, walkSeconds)
	}
	return Config{runSeconds: runSeconds, walkSeconds: walkSeconds}, nil
}

// RunSeconds returns the configured run duration in seconds.
func (c Config) RunSeconds() int { return c.runSeconds }

// WalkSeconds returns the configured walk duration in seconds.
func (c Config) WalkSeconds() int { return c.walkSeconds }

// Valid reports whether c was produced by NewConfig.
func (c Config) Valid() bool {
	return c.runSeconds > 0 && c.walkSeconds > 0
}

// Seconds returns the configured duration of phase in seconds.
func (c Config) Seconds(phase types.Phase) int {
	if phase == types.PhaseWalk {
		return c.walkSeconds
	}
	return c.runSeconds
}

// Duration returns the configured duration of phase.
func (c Config) Duration(phase types.Phase) time.Duration {
	return time.Duration(c.Seconds(phase)) * time.Second
}

func (c Config) String() string {
	return fmt.Sprintf("run %ds / walk %ds", c.runSeconds, c.walkSeconds)
}
