package sevnet

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/errors"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("SEVNET_TEST_DIR", "/srv/models")

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain path", "/models/net.tflite", "/models/net.tflite"},
		{"env expansion", "$SEVNET_TEST_DIR/net.tflite", "/srv/models/net.tflite"},
		{"home expansion", "~/models/net.tflite", filepath.Join(home, "models", "net.tflite")},
		{"bare tilde untouched", "~other/net.tflite", "~other/net.tflite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandPath(tt.in))
		})
	}
}

func TestDetermineThreadCount(t *testing.T) {
	t.Parallel()

	sn := &SevNet{Settings: &conf.Settings{}}
	cpus := runtime.NumCPU()

	// Explicit counts are honored but clamped to the available CPUs.
	assert.Equal(t, 1, sn.determineThreadCount(1))
	assert.Equal(t, cpus, sn.determineThreadCount(cpus+100))

	// Auto detection always lands in a usable range.
	auto := sn.determineThreadCount(0)
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, cpus)
}

func TestLoadModelMissingExternalFile(t *testing.T) {
	t.Parallel()

	sn := &SevNet{
		Settings: &conf.Settings{
			SevNet: conf.SevNetSettings{
				ModelPath: filepath.Join(t.TempDir(), "nope.tflite"),
			},
		},
	}

	_, err := sn.loadModel()
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestLoadModelExternalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.tflite")
	require.NoError(t, os.WriteFile(path, []byte("model-bytes"), 0o644))

	sn := &SevNet{
		Settings: &conf.Settings{
			SevNet: conf.SevNetSettings{ModelPath: path},
		},
	}

	data, err := sn.loadModel()
	require.NoError(t, err)
	assert.Equal(t, []byte("model-bytes"), data)
	assert.Equal(t, path, sn.ModelPath)
}
