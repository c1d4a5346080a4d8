package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/runwalk/internal/types"
)

// PhaseLog is a JSONL-backed append-only log of phase changes.
// Events are stored per-session in sessions/<sessionID>/phases.jsonl.
type PhaseLog struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewPhaseLog creates a new file-backed PhaseLog rooted at the given directory.
func NewPhaseLog(root string) *PhaseLog {
	return &PhaseLog{
		root:  root,
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (e *PhaseLog) getLock(sessionID types.SessionID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lock, ok := e.locks[sessionID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	e.locks[sessionID] = lock
	return lock
}

func (e *PhaseLog) phasesPath(sessionID types.SessionID) string {
	return filepath.Join(e.root, "sessions", string(sessionID), "phases.jsonl")
}

// count reads the log file and counts lines. Caller must hold the session lock.
func (e *PhaseLog) count(sessionID types.SessionID) (int64, error) {
	f, err := os.Open(e.phasesPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open phases file: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan phases file: %w", err)
	}
	return count, nil
}

// Append adds a phase change to the session's log. The event keeps the
// sequence number assigned by the session controller.
func (e *PhaseLog) Append(_ context.Context, event *types.PhaseEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("append phase event: missing session id")
	}
	lock := e.getLock(event.SessionID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(e.phasesPath(event.SessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal phase event: %w", err)
	}

	f, err := os.OpenFile(e.phasesPath(event.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open phases file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write phase event: %w", err)
	}

	return nil
}

// Tail returns the last N phase changes for the given session.
func (e *PhaseLog) Tail(_ context.Context, sessionID types.SessionID, limit int) ([]*types.PhaseEvent, error) {
	lock := e.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(e.phasesPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open phases file: %w", err)
	}
	defer f.Close()

	var events []*types.PhaseEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event types.PhaseEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, fmt.Errorf("unmarshal phase event: %w", err)
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan phases file: %w", err)
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	return events, nil
}

// Count returns the number of phase changes recorded for the given session.
func (e *PhaseLog) Count(_ context.Context, sessionID types.SessionID) (int64, error) {
	lock := e.getLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return e.count(sessionID)
}
