// cmd/producer/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/strongtownslangley/devactivity-producer/internal/config"
	"github.com/strongtownslangley/devactivity-producer/internal/detect"
	"github.com/strongtownslangley/devactivity-producer/internal/dispatch"
	"github.com/strongtownslangley/devactivity-producer/internal/fetch"
	"github.com/strongtownslangley/devactivity-producer/internal/fingerprint"
	"github.com/strongtownslangley/devactivity-producer/internal/logger"
	"github.com/strongtownslangley/devactivity-producer/internal/metrics"
	"github.com/strongtownslangley/devactivity-producer/internal/poller"
	"github.com/strongtownslangley/devactivity-producer/internal/status"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "config.yaml", "path to the YAML config file (or set PRODUCER_CONFIG env var)")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	metricsAddrFlag := flag.String("metrics-addr", "", "address for /metrics and /status, empty uses metrics.addr from config (or set METRICS_ADDR env var)")
	onceFlag := flag.Bool("once", false, "run a single poll cycle and exit")
	flag.Parse()

	// Load .env file. godotenv does not override existing env vars.
	_ = godotenv.Load()

	if env := os.Getenv("PRODUCER_CONFIG"); env != "" && !flag.CommandLine.Changed("config") {
		*configFlag = env
	}
	if env := os.Getenv("METRICS_ADDR"); env != "" && *metricsAddrFlag == "" {
		*metricsAddrFlag = env
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	config.ApplyEnv(cfg, os.LookupEnv)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	if *metricsAddrFlag != "" {
		cfg.Metrics.Addr = *metricsAddrFlag
	}

	log, closeLog, err := logger.New(logger.Options{
		Verbose: *verboseFlag || cfg.Log.Verbose,
		File:    cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info("producer starting",
		"version", version,
		"commit", commit,
		"url", cfg.Source.URL,
		"interval", time.Duration(cfg.Poll.IntervalMs)*time.Millisecond,
		"fingerprint", cfg.Fingerprint.Algorithm,
		"elasticsearch", cfg.Sinks.Elasticsearch.Enabled,
		"kafka", cfg.Sinks.Kafka.Enabled,
		"s3", cfg.Sinks.S3.Enabled,
	)

	// Set up signal handling with detailed logging
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("received signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	// --------------------
	// Build pipeline
	// --------------------

	hasher, err := fingerprint.New(cfg.Fingerprint.Algorithm, cfg.Fingerprint.Key)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	tracker := status.NewTracker(clock)

	targets, closeSinks, err := dispatch.BuildTargets(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSinks(); err != nil {
			log.Warn("closing sinks", "error", err)
		}
	}()

	d, err := dispatch.New(targets, detect.New(hasher), dispatch.Options{
		Logger:         log,
		Clock:          clock,
		Tracker:        tracker,
		StepTimeout:    time.Duration(cfg.Dispatch.SinkTimeoutMs) * time.Millisecond,
		MaxConcurrency: cfg.Dispatch.MaxConcurrency,
	})
	if err != nil {
		return err
	}

	f := fetch.New(fetch.Config{
		MaxBytes:  cfg.Source.MaxBytes,
		UserAgent: cfg.Source.UserAgent,
		Observer: func(e fetch.Event) {
			log.Debug("fetch "+e.Phase, "url", e.URL, "bytes", e.Bytes, "duration", e.Duration)
		},
	})

	p, err := poller.Build(cfg, f, d, poller.Options{
		Logger:  log,
		Clock:   clock,
		Hasher:  hasher,
		Tracker: tracker,
	})
	if err != nil {
		return err
	}

	// --------------------
	// Metrics + status server
	// --------------------

	metricsErrCh := make(chan error, 1)
	if cfg.Metrics.Addr != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

		listener, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		log.Info("metrics server listening", "address", listener.Addr().String())

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/status", status.Handler(tracker))
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
				metricsErrCh <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// --------------------
	// Run
	// --------------------

	if *onceFlag {
		return runOnce(ctx, log, p)
	}

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
		log.Info("producer stopped")
		return nil
	case err := <-metricsErrCh:
		cancel()
		<-done
		return fmt.Errorf("metrics server: %w", err)
	}
}

// runOnce maps a single cycle to the process exit status.
func runOnce(ctx context.Context, log *slog.Logger, p *poller.Poller) error {
	res := p.PollOnce(ctx)
	if res.Err != nil {
		return res.Err
	}
	if n := res.Report.Failed(); n > 0 {
		return fmt.Errorf("%d sink(s) failed", n)
	}
	log.Info("single cycle complete", "written", res.Report.Written())
	return nil
}
