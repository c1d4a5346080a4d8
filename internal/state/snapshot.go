package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/runwalk/internal/types"
)

// ErrNoSnapshot is returned when nothing has been published yet.
var ErrNoSnapshot = errors.New("no snapshot published")

// SnapshotStore is a single-slot JSON file shared between processes.
// Writes replace the whole file with a rename, so a concurrent reader sees
// either the previous record or the new one, never a partial write.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a store backed by the file at path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the file path used by this store.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Save overwrites the stored snapshot.
func (s *SnapshotStore) Save(_ context.Context, snapshot types.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	// Atomic write: temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp snapshot: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot, or ErrNoSnapshot.
func (s *SnapshotStore) Load(_ context.Context) (types.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Snapshot{}, ErrNoSnapshot
		}
		return types.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot types.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return types.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}
