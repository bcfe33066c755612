package analysis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevnet/sevnet-go/internal/sevnet"
)

func TestNewRecord(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Main.Name = "garage-cam"

	result := sevnet.Result{
		Label:         "moderate",
		Confidence:    0.8,
		Probabilities: []float32{0.1, 0.8, 0.1},
	}

	classification, scores := NewRecord(settings, result, "photo.jpg", 42*time.Millisecond)

	_, err := uuid.Parse(classification.UUID)
	require.NoError(t, err)

	assert.Equal(t, "garage-cam", classification.SourceNode)
	assert.Equal(t, "photo.jpg", classification.Source)
	assert.Equal(t, "moderate", classification.Label)
	assert.InDelta(t, 0.8, classification.Confidence, 1e-6)
	assert.False(t, classification.Invalid)
	assert.Equal(t, 42*time.Millisecond, classification.ProcessingTime)

	require.Len(t, scores, 3)
	assert.Equal(t, "minor", scores[0].Label)
	assert.Equal(t, "moderate", scores[1].Label)
	assert.Equal(t, "severe", scores[2].Label)
	assert.InDelta(t, 0.8, scores[1].Probability, 1e-6)
}

func TestNewRecordInvalidResult(t *testing.T) {
	t.Parallel()

	classification, scores := NewRecord(testSettings(), sevnet.Result{Invalid: true}, "broken.jpg", time.Millisecond)

	assert.True(t, classification.Invalid)
	assert.Empty(t, classification.Label)
	assert.Empty(t, scores)
}
