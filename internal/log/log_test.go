package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	h := LevelFilter{
		pass: func(l slog.Level) bool { return l < slog.LevelError },
		h:    slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}),
	}
	logger := slog.New(h)
	logger.Info("kept")
	logger.Error("dropped")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gobjgen.log")
	logger, closers, err := SetupLogger(Options{Level: "trace", File: path, JSON: true})
	require.NoError(t, err)
	logger.Log(context.Background(), LevelTrace, "member", "name", "count")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"TRACE"`)
	assert.Contains(t, string(data), `"name":"count"`)
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	NewRaw(&buf).Log("counter_gobject.go", []byte("package counter"))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "==> "))
	assert.Contains(t, out, "counter_gobject.go (15 bytes)\npackage counter\n")

	NewRaw(nil).Log("ignored.go", []byte("x"))
}
