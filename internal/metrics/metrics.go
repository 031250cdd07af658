// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "devactivity_producer"

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the producer.",
	}, []string{"version", "commit", "date"})

	PollCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_cycles_total",
		Help:      "Poll cycles by result (ok, fetch_error, panic).",
	}, []string{"result"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Duration of snapshot fetches.",
		Buckets:   prometheus.DefBuckets,
	})

	FetchBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fetch_bytes",
		Help:      "Size of the last fetched snapshot.",
	})

	SinkStepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_steps_total",
		Help:      "Sink calls by sink, step and result.",
	}, []string{"sink", "step", "result"})

	SinkStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sink_step_duration_seconds",
		Help:      "Duration of sink calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sink", "step"})

	SinkVerdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_verdicts_total",
		Help:      "Change detection verdicts by sink.",
	}, []string{"sink", "verdict"})

	SinkErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_errors_total",
		Help:      "Sink failures by sink and error kind.",
	}, []string{"sink", "kind"})

	SinkHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sink_health",
		Help:      "Health code per sink (0 unknown, 1 ok, 2 error, 4 disabled).",
	}, []string{"sink"})
)
