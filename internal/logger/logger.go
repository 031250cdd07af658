// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

type Options struct {
	Verbose bool

	// File, if set, receives a copy of every log line (colors disabled).
	File string
}

// New builds the process logger. The returned close func releases the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	noColor := false

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logger: open %s: %w", opts.File, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeFn = f.Close
		noColor = true
	}

	return NewWithWriter(w, level, noColor), closeFn, nil
}

// NewWithWriter builds a tint logger on w.
func NewWithWriter(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	}))
}
