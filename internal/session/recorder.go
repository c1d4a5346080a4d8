package session

import (
	"context"
	"log/slog"

	"github.com/user/runwalk/internal/types"
)

// RecordPhases returns a handler that appends every phase change to log.
// Append failures are logged and do not affect the session.
func RecordPhases(log types.PhaseLog) Handler {
	return func(event Event) {
		if event.Kind != EventPhaseChange {
			return
		}
		phase := event.Phase
		if err := log.Append(context.Background(), &phase); err != nil {
			slog.Warn("record phase change failed", "session_id", string(phase.SessionID), "seq", phase.Seq, "error", err)
		}
	}
}
