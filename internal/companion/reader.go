// Package companion reads the shared snapshot from outside the session
// process and projects countdown entries forward without talking to the
// session controller.
package companion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/user/runwalk/internal/clock"
	"github.com/user/runwalk/internal/state"
	"github.com/user/runwalk/internal/types"
)

const (
	DefaultStaleAfter  = 5 * time.Second
	DefaultMaxEntries  = 60
	DefaultMinRefresh  = 30 * time.Second
	DefaultIdleRefresh = time.Hour
)

// Options tunes the reader. Zero values take the defaults above.
type Options struct {
	StaleAfter  time.Duration
	MaxEntries  int
	MinRefresh  time.Duration
	IdleRefresh time.Duration
}

// Reader turns the latest snapshot into a Timeline. It never writes.
type Reader struct {
	store   types.SnapshotStore
	clock   clock.Clock
	options Options
}

// NewReader creates a Reader over store.
func NewReader(store types.SnapshotStore, clk clock.Clock, options Options) *Reader {
	if options.StaleAfter <= 0 {
		options.StaleAfter = DefaultStaleAfter
	}
	if options.MaxEntries <= 0 {
		options.MaxEntries = DefaultMaxEntries
	}
	if options.MinRefresh <= 0 {
		options.MinRefresh = DefaultMinRefresh
	}
	if options.IdleRefresh <= 0 {
		options.IdleRefresh = DefaultIdleRefresh
	}
	return &Reader{store: store, clock: clk, options: options}
}

// Read loads the snapshot and builds a timeline for the current instant.
// A missing, unreadable, inactive or stale snapshot yields an idle
// timeline.
func (r *Reader) Read(ctx context.Context) *Timeline {
	now := r.clock.Now()

	snapshot, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, state.ErrNoSnapshot) {
			slog.Warn("read snapshot failed", "error", err)
		}
		return r.idle(now, types.Snapshot{})
	}
	if !snapshot.IsActive {
		return r.idle(now, snapshot)
	}

	age := now.Sub(snapshot.LastUpdate)
	if age < 0 {
		age = 0
	}
	if age > r.options.StaleAfter {
		slog.Debug("snapshot is stale", "age", age, "session_id", string(snapshot.SessionID))
		return r.idle(now, snapshot)
	}

	if snapshot.IsPaused {
		return &Timeline{
			Status:      StatusPaused,
			Snapshot:    snapshot,
			ReadAt:      now,
			NextRefresh: now.Add(r.options.MinRefresh),
			base:        snapshot,
			start:       now,
			total:       1,
			frozen:      true,
		}
	}

	remaining := snapshot.TimeRemainingSeconds - int(age/time.Second)
	if remaining < 0 {
		remaining = 0
	}
	// Entries stop at the phase boundary; the next read picks up the new
	// phase once the session process has published it.
	total := min(remaining, r.options.MaxEntries)

	refresh := max(time.Duration(total)*time.Second, r.options.MinRefresh)

	base := snapshot
	base.TimeRemainingSeconds = remaining
	return &Timeline{
		Status:      StatusActive,
		Snapshot:    snapshot,
		ReadAt:      now,
		NextRefresh: now.Add(refresh),
		base:        base,
		start:       now,
		total:       total,
	}
}

func (r *Reader) idle(now time.Time, snapshot types.Snapshot) *Timeline {
	return &Timeline{
		Status:      StatusIdle,
		Snapshot:    snapshot,
		ReadAt:      now,
		NextRefresh: now.Add(r.options.IdleRefresh),
	}
}
