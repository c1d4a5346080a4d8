package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/runwalk/internal/types"
)

func TestSnapshotStoreEmpty(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "shared", "snapshot.json"))
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSnapshotStoreOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewSnapshotStore(filepath.Join(dir, "shared", "snapshot.json"))
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

	first := types.Snapshot{IsActive: true, CurrentPhase: types.PhaseRun, TimeRemainingSeconds: 30, IntervalDurationSeconds: 30, LastUpdate: at, RunIntervalSetting: 30, WalkIntervalSetting: 60}
	second := first
	second.CurrentPhase = types.PhaseWalk
	second.TimeRemainingSeconds = 60
	second.IntervalDurationSeconds = 60
	second.LastUpdate = at.Add(30 * time.Second)

	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentPhase != types.PhaseWalk || got.TimeRemainingSeconds != 60 || !got.LastUpdate.Equal(second.LastUpdate) {
		t.Errorf("expected last write to win, got %+v", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "shared"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, got %d entries", len(entries))
	}
}

func TestSnapshotStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSnapshotStore(path).Load(context.Background()); err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected decode error, got %v", err)
	}
}
