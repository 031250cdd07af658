package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo, true)

	log.Debug("hidden")
	log.Info("poller: cycle completed", "sink", "elastic")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "poller: cycle completed")
	require.Contains(t, out, "sink=elastic")
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "producer.log")

	log, closeFn, err := New(Options{File: path})
	require.NoError(t, err)

	log.Info("producer starting")
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "producer starting")
}
