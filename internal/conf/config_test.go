package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	var settings Settings
	require.NoError(t, yaml.Unmarshal([]byte(getDefaultConfig()), &settings))

	// The shipped defaults must always pass validation.
	require.NoError(t, ValidateSettings(&settings))

	assert.Equal(t, "SevNet-Go", settings.Main.Name)
	assert.Equal(t, 256, settings.SevNet.InputSize)
	assert.Equal(t, 224, settings.SevNet.CropSize)
	assert.Equal(t, "8080", settings.Serve.Port)
	assert.True(t, settings.Output.SQLite.Enabled)
	assert.False(t, settings.Sentry.Enabled)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	settings := &Settings{
		Debug: true,
		Main:  MainSettings{Name: "node-7"},
		SevNet: SevNetSettings{
			InputSize:  256,
			CropSize:   224,
			Threads:    2,
			UseXNNPACK: true,
			Labels:     []string{"should", "not", "persist"},
		},
		Serve: ServeSettings{Port: "9090"},
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveSettings(settings, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))

	assert.True(t, loaded.Debug)
	assert.Equal(t, "node-7", loaded.Main.Name)
	assert.Equal(t, 2, loaded.SevNet.Threads)
	assert.Equal(t, "9090", loaded.Serve.Port)

	// Runtime-loaded labels are excluded from the persisted config.
	assert.Nil(t, loaded.SevNet.Labels)
}

func TestSettingsSingleton(t *testing.T) {
	original := GetSettings()
	t.Cleanup(func() { SetSettings(original) })

	settings := &Settings{Debug: true}
	SetSettings(settings)

	assert.Same(t, settings, GetSettings())
	assert.Same(t, settings, Setting())
}
