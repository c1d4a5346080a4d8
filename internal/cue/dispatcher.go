package cue

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/runwalk/internal/session"
)

const laneSize = 32

// Dispatcher delivers cues to remote outputs off the session's event
// path. Each output gets its own FIFO lane so it sees cues in order and a
// slow network send never delays ticks or the other outputs. The semaphore
// bounds how many outputs run at once.
type Dispatcher struct {
	registry  *Registry
	lanes     map[string]chan Cue
	semaphore *semaphore.Weighted
	pending   atomic.Int64
	dropped   atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a Dispatcher over registry allowing up to
// maxConcurrent outputs to run simultaneously.
func NewDispatcher(registry *Registry, maxConcurrent int64) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		registry:  registry,
		lanes:     make(map[string]chan Cue),
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
}

// Start initialises the dispatcher's context. Must be called before
// HandleEvent.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
}

// Stop closes all lanes and waits for queued cues to be delivered.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, lane := range d.lanes {
		close(lane)
	}
	d.mu.Unlock()
	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
}

// HandleEvent is a session.Handler. It only enqueues; a full lane drops
// the cue for that output.
func (d *Dispatcher) HandleEvent(event session.Event) {
	c, ok := FromEvent(event)
	if !ok {
		return
	}
	d.Enqueue(c)
}

// Enqueue puts c on every output's lane, creating lanes on first use.
func (d *Dispatcher) Enqueue(c Cue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	for _, name := range d.registry.Names() {
		lane, exists := d.lanes[name]
		if !exists {
			lane = make(chan Cue, laneSize)
			d.lanes[name] = lane
			d.wg.Add(1)
			go d.processLane(name, lane)
		}
		d.pending.Add(1)
		select {
		case lane <- c:
		default:
			d.pending.Add(-1)
			d.dropped.Add(1)
			slog.Warn("cue lane full, dropping cue", "output", name, "session_id", string(c.SessionID), "seq", c.Seq)
		}
	}
}

func (d *Dispatcher) processLane(name string, lane chan Cue) {
	defer d.wg.Done()
	for c := range lane {
		if err := d.semaphore.Acquire(d.ctx, 1); err != nil {
			return
		}
		if h, ok := d.registry.handler(name); ok {
			if err := h(c); err != nil {
				slog.Warn("deliver cue failed", "output", name, "session_id", string(c.SessionID), "phase", c.Phase.String(), "error", err)
			}
		}
		d.semaphore.Release(1)
		d.pending.Add(-1)
	}
}

// Dropped returns how many cues were discarded because a lane was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// WaitIdle blocks until every enqueued cue has been delivered, or the
// timeout expires. Returns true if idle.
func (d *Dispatcher) WaitIdle(timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if d.pending.Load() == 0 {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
