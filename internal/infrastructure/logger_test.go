package infrastructure

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

	"udderwatch/internal/config"
)

func decodeLastLine(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNewLogger_Outputs(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantConsole bool
		wantFile    bool
	}{
		{name: "console", output: "console", wantConsole: true},
		{name: "file", output: "file", wantFile: true},
		{name: "both", output: "both", wantConsole: true, wantFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer CloseLogFile()
			var console bytes.Buffer
			path := filepath.Join(t.TempDir(), "logs", "udderwatch.log")
			logger, err := NewLogger(config.LoggingConfig{
				Level:    "info",
				Format:   "json",
				Output:   tt.output,
				FilePath: path,
			}, &console)
			require.NoError(t, err)

			logger.Info("sessions read", "files", 3)
			require.NoError(t, CloseLogFile())

			if tt.wantConsole {
				entry := decodeLastLine(t, console.Bytes())
				assert.Equal(t, "sessions read", entry["msg"])
				assert.Equal(t, float64(3), entry["files"])
			} else {
				assert.Empty(t, console.String())
			}

			data, err := os.ReadFile(path)
			if !tt.wantFile {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "INFO", decodeLastLine(t, data)["level"])
		})
	}
}

func TestNewLogger_TraceID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "run-123")
	logger.With("component", "orchestrator").InfoContext(ctx, "prediction run started")

	entry := decodeLastLine(t, buf.Bytes())
	assert.Equal(t, "run-123", entry["trace_id"])
	assert.Equal(t, "orchestrator", entry["component"])

	logger.Info("no trace")
	assert.NotContains(t, decodeLastLine(t, buf.Bytes()), "trace_id")
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		emitDebug bool
		emitWarn  bool
	}{
		{level: "debug", emitDebug: true, emitWarn: true},
		{level: "info", emitWarn: true},
		{level: "warning", emitWarn: true},
		{level: "error"},
		{level: "bogus", emitWarn: true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(config.LoggingConfig{Level: tt.level, Format: "json"}, &buf)
			require.NoError(t, err)

			logger.Debug("debug line")
			logger.Warn("warn line")
			assert.Equal(t, tt.emitDebug, strings.Contains(buf.String(), "debug line"))
			assert.Equal(t, tt.emitWarn, strings.Contains(buf.String(), "warn line"))
		})
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)
	logger.Info("plain", "k", "v")
	assert.Contains(t, buf.String(), "msg=plain")
	assert.Contains(t, buf.String(), "k=v")
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	defer SetDefault(prev)

	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, &bytes.Buffer{})
	require.NoError(t, err)
	SetDefault(logger)
	assert.Same(t, logger, GetLogger())
	assert.Same(t, logger, slog.Default())
}

func TestEnsureTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := EnsureTraceID(context.Background())
	id := GetTraceID(ctx)
	require.Len(t, id, 36)
	assert.Equal(t, id, GetTraceID(EnsureTraceID(ctx)))
}
