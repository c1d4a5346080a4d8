package cue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/runwalk/internal/session"
)

// Handler renders a cue on one output.
type Handler func(c Cue) error

// Registry fans cues out to every registered output in registration
// order.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	handlers map[string]Handler
}

// NewRegistry creates an empty cue registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds or replaces the output called name.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.handlers[name] = handler
}

// Names lists the registered outputs.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

func (r *Registry) handler(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Deliver calls every output. A failing output does not stop the others;
// all failures are joined into the returned error.
func (r *Registry) Deliver(c Cue) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.names {
		if err := r.handlers[name](c); err != nil {
			errs = append(errs, fmt.Errorf("cue %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// HandleEvent is a session.Handler that delivers synchronously, on the
// goroutine dispatching the event. Failures are logged and never reach
// the session.
func (r *Registry) HandleEvent(event session.Event) {
	c, ok := FromEvent(event)
	if !ok {
		return
	}
	if err := r.Deliver(c); err != nil {
		slog.Warn("deliver cue failed", "session_id", string(c.SessionID), "phase", c.Phase.String(), "error", err)
	}
}
