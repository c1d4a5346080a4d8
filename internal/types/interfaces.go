package types

import (
	"context"
)

// SnapshotStore is the single-slot, last-write-wins shared store.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// PhaseLog keeps the per-session history of phase-change events.
type PhaseLog interface {
	Append(ctx context.Context, event *PhaseEvent) error
	Tail(ctx context.Context, sessionID SessionID, limit int) ([]*PhaseEvent, error)
	Count(ctx context.Context, sessionID SessionID) (int64, error)
}

// HistoryStore persists finished workouts.
type HistoryStore interface {
	SaveSummary(ctx context.Context, summary *WorkoutSummary) error
	ListSummaries(ctx context.Context, limit int) ([]*WorkoutSummary, error)
	Stats(ctx context.Context) (HistoryStats, error)
}
