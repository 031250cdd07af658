// internal/poller/runner.go
package poller

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/strongtownslangley/devactivity-producer/internal/metrics"
)

// Run polls once immediately, then on every tick until ctx is done.
// No overlap: ticks that fire during a cycle are dropped. No retries.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.safePoll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			p.safePoll(ctx)
			p.log.Debug("waiting for next cycle", "interval", p.cfg.Interval)
		}
	}
}

// safePoll keeps the loop alive when a cycle panics.
func (p *Poller) safePoll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.PollCyclesTotal.WithLabelValues("panic").Inc()
			p.log.Error("poll cycle panicked",
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	p.PollOnce(ctx)
}
