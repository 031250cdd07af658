// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/strongtownslangley/devactivity-producer/internal/config"
)

// Build constructs a Poller from validated, normalized config.
// The fetcher and dispatcher are owned by the caller.
func Build(c *cfg.Config, f Fetcher, d Dispatcher, opts Options) (*Poller, error) {
	return New(
		Config{
			URL:          c.Source.URL,
			Interval:     time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			FetchTimeout: time.Duration(c.Source.TimeoutMs) * time.Millisecond,
		},
		f,
		d,
		opts,
	)
}
