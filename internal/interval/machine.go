package interval

import (
	"fmt"
	"time"

	"github.com/user/runwalk/internal/types"
)

// Transition is a single phase change produced by the Machine. At is the
// logical instant the new phase began, which for deadline-driven
// transitions is the old deadline rather than the evaluation time.
type Transition struct {
	Phase   types.Phase
	At      time.Time
	Skipped bool
}

// Machine tracks the active phase of one workout using absolute
// deadlines. It is not safe for concurrent use; the owning session
// controller serializes access.
type Machine struct {
	config      Config
	phase       types.Phase
	deadline    time.Time
	phaseStart  time.Time
	startedAt   time.Time
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration
	totals      [2]time.Duration
	transitions int
}

// Start creates a Machine in the Run phase beginning at t0.
func Start(config Config, t0 time.Time) (*Machine, error) {
	if !config.Valid() {
		return nil, fmt.Errorf("%w: zero configuration", ErrInvalidConfig)
	}
	return &Machine{
		config:     config,
		phase:      types.PhaseRun,
		deadline:   t0.Add(config.Duration(types.PhaseRun)),
		phaseStart: t0,
		startedAt:  t0,
	}, nil
}

// Advance fires every transition whose deadline is at or before now and
// returns them in order. Several phases may elapse between calls; each
// one is reported. A now earlier than the current deadline (including a
// clock that jumped backward) fires nothing. A paused machine never
// advances.
func (m *Machine) Advance(now time.Time) []Transition {
	if m.paused {
		return nil
	}
	var fired []Transition
	for !now.Before(m.deadline) {
		at := m.deadline
		m.enter(m.phase.Next(), at)
		fired = append(fired, Transition{Phase: m.phase, At: at})
	}
	return fired
}

// Pause freezes phase time at now. It reports false if already paused.
func (m *Machine) Pause(now time.Time) bool {
	if m.paused {
		return false
	}
	m.paused = true
	m.pausedAt = now
	return true
}

// Resume shifts the deadline forward by the time spent paused. It reports
// false if the machine was not paused.
func (m *Machine) Resume(now time.Time) bool {
	if !m.paused {
		return false
	}
	pauseDuration := now.Sub(m.pausedAt)
	if pauseDuration < 0 {
		pauseDuration = 0
	}
	m.deadline = m.deadline.Add(pauseDuration)
	m.phaseStart = m.phaseStart.Add(pauseDuration)
	m.pausedTotal += pauseDuration
	m.paused = false
	m.pausedAt = time.Time{}
	return true
}

// SkipPhase ends the current phase immediately, as if its remaining time
// were zero.
func (m *Machine) SkipPhase(now time.Time) Transition {
	at := m.effective(now)
	if at.Before(m.phaseStart) {
		at = m.phaseStart
	}
	m.enter(m.phase.Next(), at)
	return Transition{Phase: m.phase, At: at, Skipped: true}
}

// TimeRemaining returns whole seconds left in the current phase, rounded
// up, never negative.
func (m *Machine) TimeRemaining(now time.Time) int {
	remaining := m.deadline.Sub(m.effective(now))
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// Progress returns the elapsed fraction of the current phase in [0, 1].
func (m *Machine) Progress(now time.Time) float64 {
	total := m.config.Duration(m.phase)
	remaining := m.deadline.Sub(m.effective(now))
	if remaining < 0 {
		remaining = 0
	}
	if remaining > total {
		remaining = total
	}
	return float64(total-remaining) / float64(total)
}

// Elapsed returns active (unpaused) time since the session started.
func (m *Machine) Elapsed(now time.Time) time.Duration {
	elapsed := m.effective(now).Sub(m.startedAt) - m.pausedTotal
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Totals returns active time spent in each phase up to now. After Advance
// has been called for now, run+walk equals Elapsed(now).
func (m *Machine) Totals(now time.Time) (run, walk time.Duration) {
	totals := m.totals
	end := m.effective(now)
	if end.After(m.deadline) {
		end = m.deadline
	}
	if current := end.Sub(m.phaseStart); current > 0 {
		totals[m.phase] += current
	}
	return totals[types.PhaseRun], totals[types.PhaseWalk]
}

func (m *Machine) Config() Config       { return m.config }
func (m *Machine) Phase() types.Phase   { return m.phase }
func (m *Machine) Deadline() time.Time  { return m.deadline }
func (m *Machine) StartedAt() time.Time { return m.startedAt }
func (m *Machine) Paused() bool         { return m.paused }
func (m *Machine) PausedAt() time.Time  { return m.pausedAt }
func (m *Machine) TransitionCount() int { return m.transitions }
func (m *Machine) PhaseSeconds() int    { return m.config.Seconds(m.phase) }

func (m *Machine) enter(next types.Phase, at time.Time) {
	if spent := at.Sub(m.phaseStart); spent > 0 {
		m.totals[m.phase] += spent
	}
	m.phase = next
	m.phaseStart = at
	m.deadline = at.Add(m.config.Duration(next))
	m.transitions++
}

// effective is the instant phase time is measured at: now, or the pause
// instant while paused.
func (m *Machine) effective(now time.Time) time.Time {
	if m.paused {
		return m.pausedAt
	}
	return now
}
