package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SedlarDavid/mssql-mcp/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_levels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
	}
	for _, tt := range tests {
		logger, closeFn, err := setupLogger(config.Logging{Level: tt.level})
		require.NoError(t, err)
		assert.Equal(t, tt.want, logger.GetLevel(), "level %q", tt.level)
		require.NoError(t, closeFn())
	}
}

func TestSetupLogger_fileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, closeFn, err := setupLogger(config.Logging{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info().Str("tool", "read_query").Msg("tool call")
	logger.Debug().Msg("dropped")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "read_query", entry["tool"])
	assert.Equal(t, "tool call", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestSetupLogger_fileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, closeFn, err := setupLogger(config.Logging{Format: "text", Output: path})
	require.NoError(t, err)
	logger.Info().Msg("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), `"message"`)
}

func TestSetupLogger_badPath(t *testing.T) {
	_, _, err := setupLogger(config.Logging{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
}
