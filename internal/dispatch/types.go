// internal/dispatch/types.go
package dispatch

import (
	"time"

	"github.com/strongtownslangley/devactivity-producer/internal/detect"
	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
)

// Snapshot is one fetched payload. Fingerprint is computed once per cycle.
type Snapshot struct {
	Payload     []byte
	Fingerprint fingerprint.Fingerprint
	FetchedAt   time.Time
}

// Target is one configured sink.
type Target struct {
	Name    string
	Variant sink.Variant
	Sink    sink.Sink
	Enabled bool
}

// Steps reported in an Outcome besides the sink operations.
const (
	StepDisabled = "disabled"
	StepDone     = "done"
)

// Outcome is what happened to one sink during one cycle.
// Step is the last step reached: the failing one when Err is set.
type Outcome struct {
	Sink    string
	Step    string
	Verdict detect.Verdict
	Ack     *sink.Ack
	Err     error
}

// Wrote reports whether the sink persisted the snapshot.
func (o Outcome) Wrote() bool { return o.Ack != nil }

// Report holds one Outcome per target, in configured order.
type Report struct {
	Outcomes []Outcome
}

// Failed returns the number of sinks that failed.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Written returns the number of sinks that persisted the snapshot.
func (r Report) Written() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Wrote() {
			n++
		}
	}
	return n
}
