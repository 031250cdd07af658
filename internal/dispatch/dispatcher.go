// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/strongtownslangley/devactivity-producer/internal/detect"
	"github.com/strongtownslangley/devactivity-producer/internal/metrics"
	"github.com/strongtownslangley/devactivity-producer/internal/sink"
	"github.com/strongtownslangley/devactivity-producer/internal/status"
)

type Options struct {
	Logger  *slog.Logger
	Clock   clockwork.Clock
	Tracker *status.Tracker

	// StepTimeout bounds each sink call. Zero means no per-call bound.
	StepTimeout time.Duration

	// MaxConcurrency > 1 runs sinks in parallel. Default: sequential.
	MaxConcurrency int
}

// Dispatcher runs ensure -> readLast -> detect -> write against every
// enabled sink. A failing sink never prevents the others from running.
type Dispatcher struct {
	targets  []Target
	detector *detect.Detector
	log      *slog.Logger
	clock    clockwork.Clock
	tracker  *status.Tracker
	timeout  time.Duration
	maxConc  int

	// one Run at a time: a sink is never driven concurrently
	mu sync.Mutex
}

// New validates targets and registers them with the tracker.
func New(targets []Target, det *detect.Detector, opts Options) (*Dispatcher, error) {
	if det == nil {
		return nil, errors.New("dispatch: detector required")
	}

	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if t.Name == "" {
			return nil, errors.New("dispatch: target name required")
		}
		if _, dup := seen[t.Name]; dup {
			return nil, fmt.Errorf("dispatch: duplicate target %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.Enabled && t.Sink == nil {
			return nil, fmt.Errorf("dispatch: target %q enabled without a sink", t.Name)
		}
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Tracker == nil {
		opts.Tracker = status.NewTracker(opts.Clock)
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}

	d := &Dispatcher{
		targets:  append([]Target(nil), targets...),
		detector: det,
		log:      opts.Logger,
		clock:    opts.Clock,
		tracker:  opts.Tracker,
		timeout:  opts.StepTimeout,
		maxConc:  opts.MaxConcurrency,
	}

	for _, t := range d.targets {
		d.tracker.Register(t.Name, t.Enabled)
		if t.Enabled {
			metrics.SinkHealth.WithLabelValues(t.Name).Set(float64(status.HealthUnknown))
		} else {
			metrics.SinkHealth.WithLabelValues(t.Name).Set(float64(status.HealthDisabled))
		}
	}

	return d, nil
}

// Run dispatches one snapshot. It never returns an error: every failure
// is captured in the Report.
func (d *Dispatcher) Run(ctx context.Context, snap Snapshot) Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	outcomes := make([]Outcome, len(d.targets))

	if d.maxConc <= 1 {
		for i, t := range d.targets {
			outcomes[i] = d.runTarget(ctx, t, snap)
		}
		return Report{Outcomes: outcomes}
	}

	var g errgroup.Group
	g.SetLimit(d.maxConc)
	for i, t := range d.targets {
		i, t := i, t
		g.Go(func() error {
			outcomes[i] = d.runTarget(ctx, t, snap)
			return nil
		})
	}
	_ = g.Wait()

	return Report{Outcomes: outcomes}
}

func (d *Dispatcher) runTarget(ctx context.Context, t Target, snap Snapshot) (out Outcome) {
	out = Outcome{Sink: t.Name}
	if !t.Enabled {
		out.Step = StepDisabled
		return out
	}

	log := d.log.With("sink", t.Name, "variant", string(t.Variant))

	defer func() {
		if r := recover(); r != nil {
			out.Err = sink.Structural(out.Step, fmt.Errorf("panic: %v", r))
			d.fail(log, t.Name, out.Step, out.Err)
		}
	}()

	// ---- ensure ----
	out.Step = sink.OpEnsure
	if err := d.step(ctx, t.Name, sink.OpEnsure, func(ctx context.Context) error {
		return t.Sink.EnsureReady(ctx)
	}); err != nil {
		out.Err = err
		d.fail(log, t.Name, out.Step, err)
		return out
	}

	// ---- read last ----
	out.Step = sink.OpRead
	var last *sink.StoredRecord
	if err := d.step(ctx, t.Name, sink.OpRead, func(ctx context.Context) error {
		var err error
		last, err = t.Sink.ReadLast(ctx)
		return err
	}); err != nil {
		out.Err = err
		d.fail(log, t.Name, out.Step, err)
		return out
	}

	// ---- detect ----
	out.Verdict = d.detector.DetectFingerprint(snap.Fingerprint, last)
	metrics.SinkVerdictsTotal.WithLabelValues(t.Name, out.Verdict.String()).Inc()

	if !out.Verdict.ShouldWrite() {
		out.Step = StepDone
		log.Info("snapshot unchanged", "fingerprint", snap.Fingerprint)
		d.succeed(t.Name, false)
		return out
	}

	// ---- write ----
	out.Step = sink.OpWrite
	var ack sink.Ack
	if err := d.step(ctx, t.Name, sink.OpWrite, func(ctx context.Context) error {
		var err error
		ack, err = t.Sink.Write(ctx, sink.Record{
			Payload:     snap.Payload,
			Fingerprint: snap.Fingerprint,
			Timestamp:   snap.FetchedAt,
		})
		return err
	}); err != nil {
		out.Err = err
		d.fail(log, t.Name, out.Step, err)
		return out
	}

	out.Step = StepDone
	out.Ack = &ack
	log.Info("snapshot written",
		"verdict", out.Verdict.String(),
		"fingerprint", snap.Fingerprint,
		"id", ack.ID,
		"bytes", len(snap.Payload),
	)
	d.succeed(t.Name, true)
	return out
}

// step runs one sink call under its own timeout and records its metrics.
func (d *Dispatcher) step(ctx context.Context, name, op string, fn func(context.Context) error) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := d.clock.Now()
	err := fn(ctx)
	metrics.SinkStepDuration.WithLabelValues(name, op).Observe(d.clock.Since(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.SinkStepsTotal.WithLabelValues(name, op, result).Inc()

	return err
}

func (d *Dispatcher) succeed(name string, wrote bool) {
	d.tracker.RecordSuccess(name, wrote)
	metrics.SinkHealth.WithLabelValues(name).Set(float64(status.HealthOK))
}

// fail logs every occurrence; there is no deduplication.
func (d *Dispatcher) fail(log *slog.Logger, name, step string, err error) {
	kind := sink.KindOf(err)
	metrics.SinkErrorsTotal.WithLabelValues(name, kind.String()).Inc()
	metrics.SinkHealth.WithLabelValues(name).Set(float64(status.HealthError))

	snap := d.tracker.RecordFailure(name, err)
	log.Error("sink step failed",
		"step", step,
		"kind", kind.String(),
		"error", err,
		"status", snap,
	)
}
