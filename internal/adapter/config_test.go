package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotEmpty(t, cfg.Data.Dir)
	require.Equal(t, 10, cfg.Download.QueueLimit)
	require.True(t, cfg.Download.WifiOnly)
	require.Equal(t, 5, cfg.Sync.PollSeconds)
	require.Equal(t, 20, cfg.Sync.BatchSize)
	require.Equal(t, "INFO", cfg.Logging.Level)
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLogLevel("Warn"))
	require.Equal(t, slog.LevelError, parseLogLevel(" error "))
	require.Equal(t, slog.LevelInfo, parseLogLevel("unknown"))
}
