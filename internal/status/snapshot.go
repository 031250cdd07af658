// internal/status/snapshot.go
package status

import "time"

// Snapshot is the current health of one component (a sink or the source).
// It contains no memory of the past beyond current state.
type Snapshot struct {
	Health              uint16    `json:"health"`
	LastErrorClass      string    `json:"last_error_class,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures uint32    `json:"consecutive_failures"`
	FailingSince        time.Time `json:"failing_since,omitempty"`
	LastSuccessAt       time.Time `json:"last_success_at,omitempty"`
	LastWriteAt         time.Time `json:"last_write_at,omitempty"`
}

// SecondsInError is how long the component has been failing at now.
func (s Snapshot) SecondsInError(now time.Time) uint32 {
	if s.Health != HealthError || s.FailingSince.IsZero() {
		return 0
	}
	d := now.Sub(s.FailingSince)
	if d < 0 {
		return 0
	}
	return uint32(d / time.Second)
}
