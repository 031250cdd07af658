// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/strongtownslangley/devactivity-producer/internal/dispatch"
	"github.com/strongtownslangley/devactivity-producer/internal/fetch"
	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/metrics"
	"github.com/strongtownslangley/devactivity-producer/internal/status"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	URL          string
	Interval     time.Duration
	FetchTimeout time.Duration
}

type Options struct {
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Hasher  fingerprint.Hasher
	Tracker *status.Tracker
}

// Poller is a clock-driven fetch + dispatch loop.
type Poller struct {
	cfg        Config
	fetcher    Fetcher
	dispatcher Dispatcher

	log     *slog.Logger
	clock   clockwork.Clock
	hasher  fingerprint.Hasher
	tracker *status.Tracker
}

// New creates a poller with immutable config.
func New(cfg Config, f Fetcher, d Dispatcher, opts Options) (*Poller, error) {
	if cfg.URL == "" {
		return nil, errors.New("poller: url required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, errors.New("poller: fetch timeout must be > 0")
	}
	if f == nil || d == nil {
		return nil, errors.New("poller: fetcher and dispatcher required")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Hasher == nil {
		opts.Hasher = fingerprint.MD5()
	}
	if opts.Tracker != nil {
		opts.Tracker.Register(status.SourceName, true)
	}

	return &Poller{
		cfg:        cfg,
		fetcher:    f,
		dispatcher: d,
		log:        opts.Logger,
		clock:      opts.Clock,
		hasher:     opts.Hasher,
		tracker:    opts.Tracker,
	}, nil
}

// PollOnce performs exactly one cycle. A failed fetch ends the cycle
// before any sink is touched.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{At: p.clock.Now()}

	start := p.clock.Now()
	payload, err := p.fetcher.Fetch(ctx, p.cfg.URL, p.cfg.FetchTimeout)
	metrics.FetchDuration.Observe(p.clock.Since(start).Seconds())

	if err != nil {
		res.Err = err
		metrics.PollCyclesTotal.WithLabelValues("fetch_error").Inc()

		attrs := []any{"url", p.cfg.URL, "kind", fetchKind(err), "error", err}
		if p.tracker != nil {
			attrs = append(attrs, "status", p.tracker.RecordFailure(status.SourceName, err))
		}
		p.log.Error("fetch failed", attrs...)
		return res
	}
	if p.tracker != nil {
		p.tracker.RecordSuccess(status.SourceName, false)
	}

	res.Bytes = len(payload)
	res.Fingerprint = p.hasher.Sum(payload)
	metrics.FetchBytes.Set(float64(res.Bytes))

	p.log.Info("snapshot fetched", "bytes", res.Bytes, "fingerprint", res.Fingerprint)

	res.Report = p.dispatcher.Run(ctx, dispatch.Snapshot{
		Payload:     payload,
		Fingerprint: res.Fingerprint,
		FetchedAt:   res.At,
	})

	metrics.PollCyclesTotal.WithLabelValues("ok").Inc()
	p.log.Info("cycle complete",
		"written", res.Report.Written(),
		"failed", res.Report.Failed(),
		"sinks", len(res.Report.Outcomes),
	)
	return res
}

func fetchKind(err error) string {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return status.ClassGeneric
}
