// internal/status/tracker.go
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tracker owns the health snapshots of every component.
// Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	clock clockwork.Clock
	snaps map[string]Snapshot
}

func NewTracker(clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		clock: clock,
		snaps: make(map[string]Snapshot),
	}
}

// Register seeds a component in the boot state, or disabled.
func (t *Tracker) Register(name string, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{Health: HealthUnknown}
	if !enabled {
		s.Health = HealthDisabled
	}
	t.snaps[name] = s
}

// RecordSuccess marks a recovery / OK. wrote is true when the cycle
// persisted a new record. Returns true if the health changed.
func (t *Tracker) RecordSuccess(name string, wrote bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	s := t.snaps[name]
	changed := s.Health != HealthOK

	s.Health = HealthOK
	s.LastErrorClass = ""
	s.LastError = ""
	s.ConsecutiveFailures = 0
	s.FailingSince = time.Time{}
	s.LastSuccessAt = now
	if wrote {
		s.LastWriteAt = now
	}

	t.snaps[name] = s
	return changed
}

// RecordFailure marks an error. Every failure is counted; there is no
// escalation beyond the counter.
func (t *Tracker) RecordFailure(name string, err error) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	s := t.snaps[name]

	if s.Health != HealthError {
		s.Health = HealthError
		s.FailingSince = now
	}
	s.LastErrorClass = ErrorClass(err)
	if err != nil {
		s.LastError = err.Error()
	}
	if s.ConsecutiveFailures < ^uint32(0) {
		s.ConsecutiveFailures++
	}

	t.snaps[name] = s
	return s
}

// Get returns the snapshot of one component.
func (t *Tracker) Get(name string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.snaps[name]
	return s, ok
}

// All returns a copy of every snapshot.
func (t *Tracker) All() map[string]Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Snapshot, len(t.snaps))
	for k, v := range t.snaps {
		out[k] = v
	}
	return out
}

// Names returns the registered component names, sorted.
func (t *Tracker) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.snaps))
	for k := range t.snaps {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
