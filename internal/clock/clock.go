// Package clock abstracts time so the interval scheduling logic can be
// driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// System returns wall-clock time.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Virtual is a manually advanced clock. It never moves on its own.
type Virtual struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtual creates a Virtual clock positioned at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Advance moves the clock forward by d. A negative d moves it backward,
// which tests use to simulate wall-clock adjustments.
func (v *Virtual) Advance(d time.Duration) time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = v.now.Add(d)
	return v.now
}

// Set positions the clock at t.
func (v *Virtual) Set(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = t
}
