package utils_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/gate-synth/pkg/utils"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"trace":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range tests {
		got, err := utils.ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := utils.ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger(slog.LevelInfo, &buf)

	logger.Debug("hidden")
	logger.Info("connect rejected", "error", "slot occupied")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=\"connect rejected\"")
	assert.Contains(t, out, "err=\"slot occupied\"")
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatesynth.log")

	logger, file, err := utils.NewFileLogger(slog.LevelDebug, path)
	require.NoError(t, err)
	logger.Debug("written")
	require.NoError(t, file.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=written")

	_, _, err = utils.NewFileLogger(slog.LevelInfo, filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
