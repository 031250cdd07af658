// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/strongtownslangley/devactivity-producer/internal/dispatch"
	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
)

// Fetcher retrieves the raw snapshot. Satisfied by *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// Dispatcher delivers a snapshot to every sink. Satisfied by *dispatch.Dispatcher.
type Dispatcher interface {
	Run(ctx context.Context, snap dispatch.Snapshot) dispatch.Report
}

// PollResult is produced by one poll cycle.
type PollResult struct {
	At          time.Time
	Bytes       int
	Fingerprint fingerprint.Fingerprint

	// Err is set when the fetch failed; Report is then empty.
	Err    error
	Report dispatch.Report
}

// Dispatched reports whether the cycle reached the sinks.
func (r PollResult) Dispatched() bool { return r.Err == nil }
