// Package cue turns phase changes into the announcements a runner hears,
// feels or reads: voice text, haptic patterns, a terminal bell and an
// optional Telegram message.
package cue

import (
	"fmt"
	"strings"

	"github.com/user/runwalk/internal/session"
	"github.com/user/runwalk/internal/types"
)

// Cue is one announcement for the start of a phase.
type Cue struct {
	SessionID types.SessionID
	Seq       int64
	Phase     types.Phase
	Seconds   int
}

// Text returns the spoken form, e.g. "Run for 1 minute 30 seconds".
func (c Cue) Text() string {
	name := "Run"
	if c.Phase == types.PhaseWalk {
		name = "Walk"
	}
	return name + " for " + Duration(c.Seconds)
}

// Duration spells out a whole number of seconds in minutes and seconds.
func Duration(seconds int) string {
	if seconds <= 0 {
		return "0 seconds"
	}
	var parts []string
	if m := seconds / 60; m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	if s := seconds % 60; s > 0 {
		parts = append(parts, plural(s, "second"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FromEvent builds the cue for a session event. Only the start of a
// session and phase changes produce cues.
func FromEvent(event session.Event) (Cue, bool) {
	snap := event.Snapshot
	switch event.Kind {
	case session.EventStarted:
		return Cue{
			SessionID: snap.SessionID,
			Phase:     types.PhaseRun,
			Seconds:   snap.RunIntervalSetting,
		}, true
	case session.EventPhaseChange:
		seconds := snap.RunIntervalSetting
		if event.Phase.Phase == types.PhaseWalk {
			seconds = snap.WalkIntervalSetting
		}
		return Cue{
			SessionID: event.Phase.SessionID,
			Seq:       event.Phase.Seq,
			Phase:     event.Phase.Phase,
			Seconds:   seconds,
		}, true
	default:
		return Cue{}, false
	}
}
