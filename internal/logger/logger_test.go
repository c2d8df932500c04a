package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fableterm/fableterm/internal/config"
)

func TestSetup_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log, closeFn, err := Setup(&config.Config{LogFile: path, LogLevel: slog.LevelInfo})
	require.NoError(t, err)

	log.Info("session started")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session started")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	WithError(log, errors.New("boom")).Warn("call failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), "call failed")
}
