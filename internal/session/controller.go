// Package session owns the lifecycle of a single interval workout: it
// drives the phase machine on a timer, numbers phase changes and fans
// events out to listeners.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user/runwalk/internal/clock"
	"github.com/user/runwalk/internal/interval"
	"github.com/user/runwalk/internal/retry"
	"github.com/user/runwalk/internal/types"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrAlreadyActive = errors.New("session already active")
)

// Metrics supplies the optional route and heart-rate data recorded by
// external collaborators during the workout.
type Metrics interface {
	RoutePoints() []types.RoutePoint
	AverageHeartRate() (float64, bool)
}

// SummarySink persists finished workouts.
type SummarySink interface {
	SaveSummary(ctx context.Context, summary *types.WorkoutSummary) error
}

// Options contains runtime options for the Controller.
type Options struct {
	TickInterval time.Duration
	Metrics      Metrics
	Summaries    SummarySink
	Retry        *retry.Policy
}

type subscription struct {
	name    string
	handler Handler
}

// Controller runs at most one workout session at a time.
type Controller struct {
	mu         sync.Mutex
	clock      clock.Clock
	options    Options
	machine    *interval.Machine
	sessionID  types.SessionID
	seq        int64
	lastConfig interval.Config

	// dispatchMu is taken before mu is released so events from
	// concurrent calls reach handlers in sequence order.
	dispatchMu sync.Mutex

	subsMu sync.RWMutex
	subs   []subscription

	wake chan struct{}
}

// New creates a Controller using clk for all time measurements.
func New(clk clock.Clock, options Options) *Controller {
	if options.TickInterval <= 0 {
		options.TickInterval = 250 * time.Millisecond
	}
	if options.Retry == nil {
		options.Retry = retry.DefaultPolicy()
	}
	return &Controller{
		clock:   clk,
		options: options,
		wake:    make(chan struct{}, 1),
	}
}

// Subscribe registers a handler. Handlers are called in registration order.
func (c *Controller) Subscribe(name string, handler Handler) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.subs = append(c.subs, subscription{name: name, handler: handler})
}

// Start begins a new session in the Run phase.
func (c *Controller) Start(config interval.Config) (types.SessionID, error) {
	if !config.Valid() {
		return "", fmt.Errorf("start session: %w", interval.ErrInvalidConfig)
	}

	c.mu.Lock()
	if c.machine != nil {
		c.mu.Unlock()
		return "", ErrAlreadyActive
	}
	now := c.clock.Now()
	machine, err := interval.Start(config, now)
	if err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("start session: %w", err)
	}
	c.machine = machine
	c.sessionID = types.NewSessionID()
	c.seq = 0
	c.lastConfig = config
	sessionID := c.sessionID

	slog.Info("session started", "session_id", string(sessionID), "run_seconds", config.RunSeconds(), "walk_seconds", config.WalkSeconds())
	c.commitLocked([]Event{{Kind: EventStarted, Snapshot: c.snapshotLocked(now)}})
	c.signal()
	return sessionID, nil
}

// Tick advances the machine to the current time, emitting one phase
// change per elapsed transition followed by a tick event.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.machine == nil {
		c.mu.Unlock()
		return
	}
	now := c.clock.Now()
	events := c.advanceLocked(now)
	events = append(events, Event{Kind: EventTick, Snapshot: c.snapshotLocked(now)})
	c.commitLocked(events)
}

// Pause freezes phase time. Pausing a paused session is a no-op.
func (c *Controller) Pause() error {
	return c.mutate(EventPaused, func(now time.Time) bool {
		return c.machine.Pause(now)
	})
}

// Resume continues a paused session. Resuming a running session is a no-op.
func (c *Controller) Resume() error {
	return c.mutate(EventResumed, func(now time.Time) bool {
		return c.machine.Resume(now)
	})
}

// SkipPhase ends the current phase immediately and emits exactly one
// phase change for it.
func (c *Controller) SkipPhase() error {
	c.mu.Lock()
	if c.machine == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	now := c.clock.Now()
	events := c.advanceLocked(now)
	tr := c.machine.SkipPhase(now)
	events = append(events, c.phaseEventLocked(tr, now))
	c.commitLocked(events)
	return nil
}

// Stop finalizes the session and hands its summary to the configured
// SummarySink. Stopping when no session is active returns nil, nil.
func (c *Controller) Stop(ctx context.Context) (*types.WorkoutSummary, error) {
	c.mu.Lock()
	if c.machine == nil {
		c.mu.Unlock()
		return nil, nil
	}
	now := c.clock.Now()
	events := c.advanceLocked(now)
	summary := c.summaryLocked(now)
	c.machine = nil
	stopped := c.snapshotLocked(now)
	stopped.SessionID = summary.SessionID
	events = append(events, Event{Kind: EventStopped, Snapshot: stopped, Summary: summary})

	slog.Info("session stopped",
		"session_id", string(summary.SessionID),
		"run_seconds", summary.TotalRunSeconds,
		"walk_seconds", summary.TotalWalkSeconds,
		"transitions", summary.PhaseTransitionCount,
	)
	c.commitLocked(events)
	c.signal()

	if c.options.Summaries != nil {
		err := c.options.Retry.Execute(ctx, func() error {
			return c.options.Summaries.SaveSummary(ctx, summary)
		})
		if err != nil {
			slog.Error("persist workout summary failed", "session_id", string(summary.SessionID), "error", err)
		}
	}
	return summary, nil
}

// Snapshot returns the current state without advancing the machine.
func (c *Controller) Snapshot() types.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(c.clock.Now())
}

// Active reports whether a session is running or paused.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine != nil
}

// Run drives Tick on the configured interval while a session is active
// and idles otherwise. It returns when ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	var ticker *time.Ticker
	var tickC <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	// A session may have been started before Run.
	c.signal()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
			active := c.Active()
			if active && ticker == nil {
				ticker = time.NewTicker(c.options.TickInterval)
				tickC = ticker.C
			} else if !active && ticker != nil {
				ticker.Stop()
				ticker, tickC = nil, nil
			}
		case <-tickC:
			c.Tick()
		}
	}
}

func (c *Controller) mutate(kind EventKind, apply func(now time.Time) bool) error {
	c.mu.Lock()
	if c.machine == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	now := c.clock.Now()
	events := c.advanceLocked(now)
	if apply(now) {
		events = append(events, Event{Kind: kind, Snapshot: c.snapshotLocked(now)})
	}
	c.commitLocked(events)
	return nil
}

func (c *Controller) advanceLocked(now time.Time) []Event {
	var events []Event
	for _, tr := range c.machine.Advance(now) {
		events = append(events, c.phaseEventLocked(tr, now))
	}
	return events
}

func (c *Controller) phaseEventLocked(tr interval.Transition, now time.Time) Event {
	c.seq++
	slog.Debug("phase change", "session_id", string(c.sessionID), "phase", tr.Phase.String(), "seq", c.seq, "skipped", tr.Skipped)
	return Event{
		Kind: EventPhaseChange,
		Phase: types.PhaseEvent{
			ID:        types.NewEventID(),
			SessionID: c.sessionID,
			Seq:       c.seq,
			Phase:     tr.Phase,
			At:        tr.At,
		},
		Snapshot: c.snapshotLocked(now),
	}
}

func (c *Controller) snapshotLocked(now time.Time) types.Snapshot {
	snap := types.Snapshot{
		LastUpdate:          now,
		RunIntervalSetting:  c.lastConfig.RunSeconds(),
		WalkIntervalSetting: c.lastConfig.WalkSeconds(),
		Sequence:            c.seq,
	}
	if c.machine == nil {
		snap.CurrentPhase = types.PhaseRun
		snap.IntervalDurationSeconds = c.lastConfig.RunSeconds()
		return snap
	}
	snap.SessionID = c.sessionID
	snap.IsActive = true
	snap.IsPaused = c.machine.Paused()
	snap.CurrentPhase = c.machine.Phase()
	snap.TimeRemainingSeconds = c.machine.TimeRemaining(now)
	snap.IntervalDurationSeconds = c.machine.PhaseSeconds()
	return snap
}

func (c *Controller) summaryLocked(now time.Time) *types.WorkoutSummary {
	run, walk := c.machine.Totals(now)
	summary := &types.WorkoutSummary{
		SessionID:            c.sessionID,
		StartTime:            c.machine.StartedAt(),
		EndTime:              now,
		RunIntervalSetting:   c.lastConfig.RunSeconds(),
		WalkIntervalSetting:  c.lastConfig.WalkSeconds(),
		TotalRunSeconds:      int(run.Round(time.Second) / time.Second),
		TotalWalkSeconds:     int(walk.Round(time.Second) / time.Second),
		PhaseTransitionCount: c.machine.TransitionCount(),
	}
	if c.options.Metrics != nil {
		summary.RoutePoints = c.options.Metrics.RoutePoints()
		if hr, ok := c.options.Metrics.AverageHeartRate(); ok {
			summary.AverageHeartRate = &hr
		}
	}
	return summary
}

// commitLocked releases mu and delivers events in order. The caller must
// hold mu.
func (c *Controller) commitLocked(events []Event) {
	c.dispatchMu.Lock()
	c.mu.Unlock()
	defer c.dispatchMu.Unlock()

	if len(events) == 0 {
		return
	}
	c.subsMu.RLock()
	subs := append([]subscription(nil), c.subs...)
	c.subsMu.RUnlock()

	for _, event := range events {
		for _, sub := range subs {
			sub.handler(event)
		}
	}
}

func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
