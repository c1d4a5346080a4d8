package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the callback invoked when a scheduled entry fires.
type Job func()

// Scheduler runs named periodic jobs on a cron ticker.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field, plus descriptors such as
// "@every 1s".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler. Jobs that are still running when their next
// activation comes around are skipped rather than stacked.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers job under name using a cron expression. Registering the
// same name again replaces the previous entry.
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}

	id, err := s.cron.AddFunc(spec, func() {
		slog.Debug("scheduled job firing", "name", name)
		job()
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%s): %w", name, spec, err)
	}
	s.entries[name] = id
	slog.Debug("scheduled job", "name", name, "schedule", spec)
	return nil
}

// Every registers job to run at a fixed interval. Intervals below one
// second are rounded up to one second by cron.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive", name)
	}
	return s.Add(name, "@every "+interval.String(), job)
}

// Remove unregisters the named job. Unknown names are ignored.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Start starts the cron ticker in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron ticker and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
