// Package state provides filesystem-backed storage implementations.
package state

import "github.com/user/runwalk/internal/types"

// Compile-time interface compliance checks.
var _ types.SnapshotStore = (*SnapshotStore)(nil)
var _ types.PhaseLog = (*PhaseLog)(nil)
var _ types.HistoryStore = (*HistoryStore)(nil)
