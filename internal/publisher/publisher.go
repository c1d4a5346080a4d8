// Package publisher writes session snapshots to the shared store that
// companion processes read.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/user/runwalk/internal/clock"
	"github.com/user/runwalk/internal/session"
	"github.com/user/runwalk/internal/types"
)

// Source provides the current snapshot for heartbeat writes.
type Source interface {
	Snapshot() types.Snapshot
}

// Publisher overwrites the shared snapshot on every state-affecting event
// and on a heartbeat while a session is active. Write failures are logged
// and retried by the next event or heartbeat; they never reach the session.
type Publisher struct {
	store    types.SnapshotStore
	source   Source
	clock    clock.Clock
	interval time.Duration

	mu sync.Mutex
	// written is the LastUpdate of the newest snapshot in the store.
	written  time.Time
	failures int
}

// New creates a Publisher. interval is the heartbeat cadence the caller
// schedules Heartbeat at; zero means one second.
func New(store types.SnapshotStore, source Source, clk clock.Clock, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Publisher{
		store:    store,
		source:   source,
		clock:    clk,
		interval: interval,
	}
}

// Interval returns the heartbeat cadence.
func (p *Publisher) Interval() time.Duration {
	return p.interval
}

// Publish writes snapshot to the store, swallowing any error. A snapshot
// taken before the one already stored is dropped.
func (p *Publisher) Publish(snapshot types.Snapshot) {
	p.publish(snapshot, false)
}

func (p *Publisher) publish(snapshot types.Snapshot, heartbeat bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snapshot.LastUpdate.Before(p.written) {
		slog.Debug("skip out-of-date snapshot", "session_id", string(snapshot.SessionID))
		return
	}
	// A heartbeat snapshot read at the same instant as a stored event
	// snapshot may predate it.
	if heartbeat && !snapshot.LastUpdate.After(p.written) {
		return
	}
	if err := p.store.Save(context.Background(), snapshot); err != nil {
		p.failures++
		slog.Warn("publish snapshot failed", "consecutive_failures", p.failures, "error", err)
		return
	}
	if p.failures > 0 {
		slog.Info("publish snapshot recovered", "after_failures", p.failures)
	}
	p.failures = 0
	p.written = snapshot.LastUpdate
}

// HandleEvent is a session.Handler. Tick events are left to the heartbeat
// so the store is not rewritten on every scheduler wake-up.
func (p *Publisher) HandleEvent(event session.Event) {
	if event.Kind == session.EventTick {
		return
	}
	p.Publish(event.Snapshot)
}

// Heartbeat republishes the source snapshot while a session is active.
// The scheduler's cadence is the only gate, so the store is written at
// least once per interval. Failed writes are retried by the next call.
func (p *Publisher) Heartbeat() {
	snapshot := p.source.Snapshot()
	if !snapshot.IsActive {
		return
	}
	p.publish(snapshot, true)
}

// Failures returns the number of consecutive failed writes.
func (p *Publisher) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}
