package log

import (
	"bytes"
	"context"
	"encoding/json"
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
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestConsoleSplitsByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setupLogger(&stdout, &stderr, "debug", "", "text")
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("scanning", "target", "libEGL")
	logger.Error("failed", "target", "libGLESv2")

	assert.Contains(t, stdout.String(), "target=libEGL")
	assert.NotContains(t, stdout.String(), "failed")
	assert.Contains(t, stderr.String(), "target=libGLESv2")
	assert.NotContains(t, stderr.String(), "scanning")
}

func TestTraceLevelName(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, _, err := setupLogger(&stdout, &stderr, "trace", "", "json")
	require.NoError(t, err)

	logger.Log(context.Background(), LevelTrace, "statement")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rec))
	assert.Equal(t, "TRACE", rec["level"])
	assert.Equal(t, "statement", rec["msg"])
}

func TestLogFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closers, err := setupLogger(&stdout, &stderr, "info", path, "text")
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Info("generated", "libraries", 4)
	logger.Error("boom")
	require.NoError(t, closers[0].Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "libraries=4")
	assert.Contains(t, string(data), "boom")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "boom")
}

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracer(&buf)
	tr.Trace("a/moz.build:1", "assign")
	tr.Trace("a/moz.build:3", "if")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "     1 a/moz.build:1 assign", lines[0])
	assert.Equal(t, "     2 a/moz.build:3 if", lines[1])

	// A nil writer is a no-op.
	NewTracer(nil).Trace("x", "y")
}
