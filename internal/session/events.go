package session

import "github.com/user/runwalk/internal/types"

// EventKind identifies what changed in the session.
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventPhaseChange EventKind = "phase_change"
	EventPaused      EventKind = "paused"
	EventResumed     EventKind = "resumed"
	EventTick        EventKind = "tick"
	EventStopped     EventKind = "stopped"
)

// Event is delivered synchronously to every subscribed handler. Phase is
// set only for EventPhaseChange and Summary only for EventStopped.
type Event struct {
	Kind     EventKind
	Phase    types.PhaseEvent
	Snapshot types.Snapshot
	Summary  *types.WorkoutSummary
}

// Handler receives session events. Handlers run on the goroutine that
// caused the event and must not call mutating Controller methods.
type Handler func(Event)
