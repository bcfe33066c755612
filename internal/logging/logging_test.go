package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevnet/sevnet-go/internal/conf"
)

func TestForServiceBeforeInit(t *testing.T) {
	structuredLogger = nil
	humanReadableLogger = nil

	assert.Nil(t, ForService("sevnet"))
	assert.Nil(t, Structured())
}

func TestStructuredOutput(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human)

	logger := ForService("sevnet")
	require.NotNil(t, logger)
	logger.Info("model loaded", "path", "/models/net.tflite")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &entry))
	assert.Equal(t, "model loaded", entry["msg"])
	assert.Equal(t, "sevnet", entry["service"])
	assert.Equal(t, "/models/net.tflite", entry["path"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestSetupFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "sevnet.log")

	settings := &conf.Settings{}
	settings.Main.Log = conf.LogConfig{
		Enabled:  true,
		Path:     logPath,
		Rotation: conf.RotationDaily,
	}

	// NewFileLogger reads rotation defaults from the settings singleton.
	previous := conf.GetSettings()
	conf.SetSettings(settings)
	t.Cleanup(func() { conf.SetSettings(previous) })

	Init()
	closeLog, err := SetupFileOutput(settings)
	require.NoError(t, err)

	Info("model loaded", "labels", 3)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "model loaded", entry["msg"])
	assert.Equal(t, "main", entry["service"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 3, entry["labels"])
}

func TestSetupFileOutputDisabled(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sevnet.log")

	settings := &conf.Settings{}
	settings.Main.Log = conf.LogConfig{Enabled: false, Path: logPath}

	closeLog, err := SetupFileOutput(settings)
	require.NoError(t, err)
	require.NoError(t, closeLog())

	_, statErr := os.Stat(logPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCustomLevelNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level slog.Level
		want  string
	}{
		{LevelTrace, "TRACE"},
		{LevelFatal, "FATAL"},
		{slog.LevelInfo, "INFO"},
		{slog.LevelWarn, "WARN"},
	}

	for _, tt := range tests {
		attr := replaceLevelNames(nil, slog.Any(slog.LevelKey, tt.level))
		assert.Equal(t, tt.want, attr.Value.String())
	}
}

func TestFatalLevelAboveError(t *testing.T) {
	t.Parallel()

	assert.Greater(t, LevelFatal, slog.LevelError)
	assert.Less(t, LevelTrace, slog.LevelDebug)
}
