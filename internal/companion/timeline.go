package companion

import (
	"iter"
	"time"

	"github.com/user/runwalk/internal/types"
)

// Status is the companion's view of the session.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Entry is one displayable countdown tick.
type Entry struct {
	Date  time.Time
	State types.Snapshot
}

// Timeline is the result of a single read. Its entries are produced
// lazily and can be consumed only once; a fresh read is required to start
// over.
type Timeline struct {
	Status      Status
	Snapshot    types.Snapshot
	ReadAt      time.Time
	NextRefresh time.Time

	base   types.Snapshot
	start  time.Time
	total  int
	next   int
	frozen bool
}

// Len returns the number of entries the timeline produces in total.
func (t *Timeline) Len() int {
	return t.total
}

// Next returns the next entry, or false once the timeline is exhausted.
func (t *Timeline) Next() (Entry, bool) {
	if t.next >= t.total {
		return Entry{}, false
	}
	i := t.next
	t.next++

	projected := t.base
	if !t.frozen {
		projected.TimeRemainingSeconds = t.base.TimeRemainingSeconds - i
	}
	return Entry{
		Date:  t.start.Add(time.Duration(i) * time.Second),
		State: projected,
	}, true
}

// Entries yields the remaining entries, consuming the timeline.
func (t *Timeline) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for {
			entry, ok := t.Next()
			if !ok || !yield(entry) {
				return
			}
		}
	}
}
