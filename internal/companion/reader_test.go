package companion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/runwalk/internal/clock"
	"github.com/user/runwalk/internal/state"
	"github.com/user/runwalk/internal/types"
)

var t0 = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

type fixedStore struct {
	snapshot types.Snapshot
	err      error
	saves    int
}

func (f *fixedStore) Save(context.Context, types.Snapshot) error {
	f.saves++
	return nil
}

func (f *fixedStore) Load(context.Context) (types.Snapshot, error) {
	return f.snapshot, f.err
}

func activeSnapshot(remaining, duration int, lastUpdate time.Time) types.Snapshot {
	return types.Snapshot{
		SessionID:               types.NewSessionID(),
		IsActive:                true,
		CurrentPhase:            types.PhaseRun,
		TimeRemainingSeconds:    remaining,
		IntervalDurationSeconds: duration,
		LastUpdate:              lastUpdate,
		RunIntervalSetting:      duration,
		WalkIntervalSetting:     90,
	}
}

func readAt(t *testing.T, snapshot types.Snapshot, now time.Time) *Timeline {
	t.Helper()
	store := &fixedStore{snapshot: snapshot}
	timeline := NewReader(store, clock.NewVirtual(now), Options{}).Read(context.Background())
	if store.saves != 0 {
		t.Fatal("reader must never write to the store")
	}
	return timeline
}

func TestStalenessFallback(t *testing.T) {
	now := t0.Add(time.Minute)

	stale := readAt(t, activeSnapshot(40, 60, now.Add(-6*time.Second)), now)
	if stale.Status != StatusIdle {
		t.Errorf("expected idle for 6s old snapshot, got %s", stale.Status)
	}
	if !stale.NextRefresh.Equal(now.Add(time.Hour)) {
		t.Errorf("expected idle refresh in 1h, got %v", stale.NextRefresh.Sub(now))
	}
	if stale.Len() != 0 {
		t.Errorf("expected no entries when idle, got %d", stale.Len())
	}

	fresh := readAt(t, activeSnapshot(40, 60, now.Add(-4*time.Second)), now)
	if fresh.Status != StatusActive {
		t.Errorf("expected active for 4s old snapshot, got %s", fresh.Status)
	}

	boundary := readAt(t, activeSnapshot(40, 60, now.Add(-5*time.Second)), now)
	if boundary.Status != StatusActive {
		t.Errorf("expected active at exactly the staleness bound, got %s", boundary.Status)
	}
}

func TestInactiveAndMissingSnapshot(t *testing.T) {
	snap := activeSnapshot(40, 60, t0)
	snap.IsActive = false
	if tl := readAt(t, snap, t0); tl.Status != StatusIdle {
		t.Errorf("expected idle for inactive snapshot, got %s", tl.Status)
	}

	store := &fixedStore{err: state.ErrNoSnapshot}
	tl := NewReader(store, clock.NewVirtual(t0), Options{}).Read(context.Background())
	if tl.Status != StatusIdle {
		t.Errorf("expected idle without snapshot, got %s", tl.Status)
	}

	store = &fixedStore{err: errors.New("permission denied")}
	if tl := NewReader(store, clock.NewVirtual(t0), Options{}).Read(context.Background()); tl.Status != StatusIdle {
		t.Errorf("expected idle on read error, got %s", tl.Status)
	}
}

func TestProjectionCountsDown(t *testing.T) {
	now := t0.Add(time.Minute)
	// Published 2.5s ago with 20s left: 18s remain at read time.
	tl := readAt(t, activeSnapshot(20, 60, now.Add(-2500*time.Millisecond)), now)

	if tl.Len() != 18 {
		t.Fatalf("expected 18 entries, got %d", tl.Len())
	}
	i := 0
	for entry := range tl.Entries() {
		if !entry.Date.Equal(now.Add(time.Duration(i) * time.Second)) {
			t.Errorf("entry %d: unexpected date %v", i, entry.Date.Sub(now))
		}
		if entry.State.TimeRemainingSeconds != 18-i {
			t.Errorf("entry %d: expected %ds remaining, got %d", i, 18-i, entry.State.TimeRemainingSeconds)
		}
		if entry.State.CurrentPhase != types.PhaseRun {
			t.Errorf("entry %d: projection must not cross the phase boundary", i)
		}
		i++
	}
	if i != 18 {
		t.Errorf("expected 18 yielded entries, got %d", i)
	}
	if !tl.NextRefresh.Equal(now.Add(30 * time.Second)) {
		t.Errorf("expected refresh after 30s minimum, got %v", tl.NextRefresh.Sub(now))
	}
}

func TestProjectionCappedAtSixty(t *testing.T) {
	now := t0
	tl := readAt(t, activeSnapshot(300, 300, now), now)
	if tl.Len() != 60 {
		t.Errorf("expected 60 entries, got %d", tl.Len())
	}
	if !tl.NextRefresh.Equal(now.Add(60 * time.Second)) {
		t.Errorf("expected refresh after 60s, got %v", tl.NextRefresh.Sub(now))
	}
}

func TestTimelineIsNotRestartable(t *testing.T) {
	tl := readAt(t, activeSnapshot(5, 30, t0), t0)

	first, ok := tl.Next()
	if !ok || first.State.TimeRemainingSeconds != 5 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	count := 0
	for range tl.Entries() {
		count++
	}
	if count != 4 {
		t.Errorf("expected the remaining 4 entries, got %d", count)
	}
	for range tl.Entries() {
		t.Fatal("exhausted timeline yielded again")
	}
	if _, ok := tl.Next(); ok {
		t.Error("expected Next to report exhaustion")
	}
}

func TestPausedSnapshotIsFrozen(t *testing.T) {
	snap := activeSnapshot(12, 60, t0)
	snap.IsPaused = true
	tl := readAt(t, snap, t0.Add(3*time.Second))

	if tl.Status != StatusPaused {
		t.Fatalf("expected paused, got %s", tl.Status)
	}
	entry, ok := tl.Next()
	if !ok || entry.State.TimeRemainingSeconds != 12 {
		t.Errorf("expected frozen 12s entry, got %+v", entry)
	}
	if tl.Len() != 1 {
		t.Errorf("expected a single entry, got %d", tl.Len())
	}
}

func TestZeroRemainingYieldsNoEntries(t *testing.T) {
	now := t0.Add(10 * time.Second)
	tl := readAt(t, activeSnapshot(3, 30, now.Add(-4*time.Second)), now)
	if tl.Status != StatusActive || tl.Len() != 0 {
		t.Errorf("expected active timeline with no entries, got %s/%d", tl.Status, tl.Len())
	}
	if !tl.NextRefresh.Equal(now.Add(30 * time.Second)) {
		t.Errorf("expected 30s refresh, got %v", tl.NextRefresh.Sub(now))
	}
}
