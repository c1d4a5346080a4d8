package cue

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/user/runwalk/internal/types"
)

// Voice writes the spoken text of each cue as a line to w. A nil writer
// only logs.
func Voice(w io.Writer) Handler {
	return func(c Cue) error {
		text := c.Text()
		slog.Info("voice cue", "session_id", string(c.SessionID), "text", text)
		if w == nil {
			return nil
		}
		_, err := fmt.Fprintln(w, text)
		return err
	}
}

// Bell rings the terminal bell once per cue.
func Bell(w io.Writer) Handler {
	return func(Cue) error {
		_, err := io.WriteString(w, "\a")
		return err
	}
}

// Pattern is an alternating on/off vibration sequence, starting with on.
type Pattern []time.Duration

var (
	// RunPattern is a double pulse.
	RunPattern = Pattern{150 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond}
	// WalkPattern is a single long pulse.
	WalkPattern = Pattern{600 * time.Millisecond}
)

// PatternFor returns the haptic pattern for phase.
func PatternFor(phase types.Phase) Pattern {
	if phase == types.PhaseWalk {
		return WalkPattern
	}
	return RunPattern
}

// Pulses returns the number of "on" segments.
func (p Pattern) Pulses() int {
	return (len(p) + 1) / 2
}

// Vibrator plays a haptic pattern on a device.
type Vibrator interface {
	Vibrate(p Pattern) error
}

// LogVibrator records patterns in the log for hosts without a haptic
// device.
type LogVibrator struct{}

func (LogVibrator) Vibrate(p Pattern) error {
	slog.Debug("haptic cue", "pulses", p.Pulses(), "pattern", fmt.Sprint([]time.Duration(p)))
	return nil
}

// Haptics plays the phase's pattern on v.
func Haptics(v Vibrator) Handler {
	return func(c Cue) error {
		return v.Vibrate(PatternFor(c.Phase))
	}
}
