package sevnet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevnet/sevnet-go/internal/errors"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		scores      []float32
		labels      []string
		wantErr     bool
		wantInvalid bool
		wantLabel   string
	}{
		{
			name:      "clear winner",
			scores:    []float32{2.0, 1.0, 0.1},
			labels:    DefaultLabels,
			wantLabel: "minor",
		},
		{
			name:      "winner in the middle",
			scores:    []float32{0.1, 3.0, 1.0},
			labels:    DefaultLabels,
			wantLabel: "moderate",
		},
		{
			name:      "winner at the end",
			scores:    []float32{-1.0, 0.0, 4.5},
			labels:    DefaultLabels,
			wantLabel: "severe",
		},
		{
			name:      "exact tie selects lowest index",
			scores:    []float32{1.0, 1.0, 1.0},
			labels:    DefaultLabels,
			wantLabel: "minor",
		},
		{
			name:      "partial tie selects first maximum",
			scores:    []float32{0.5, 2.0, 2.0},
			labels:    DefaultLabels,
			wantLabel: "moderate",
		},
		{
			name:      "negative scores",
			scores:    []float32{-5.0, -2.0, -8.0},
			labels:    DefaultLabels,
			wantLabel: "moderate",
		},
		{
			name:      "large scores do not overflow softmax",
			scores:    []float32{1000.0, 999.0, 998.0},
			labels:    DefaultLabels,
			wantLabel: "minor",
		},
		{
			name:        "NaN score yields invalid result",
			scores:      []float32{0.5, float32(math.NaN()), 0.2},
			labels:      DefaultLabels,
			wantInvalid: true,
		},
		{
			name:        "all NaN yields invalid result",
			scores:      []float32{float32(math.NaN()), float32(math.NaN()), float32(math.NaN())},
			labels:      DefaultLabels,
			wantInvalid: true,
		},
		{
			name:    "mismatched lengths",
			scores:  []float32{1.0, 2.0},
			labels:  DefaultLabels,
			wantErr: true,
		},
		{
			name:    "empty input",
			scores:  []float32{},
			labels:  []string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Classify(tt.scores, tt.labels)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
				return
			}
			require.NoError(t, err)

			if tt.wantInvalid {
				assert.True(t, result.Invalid)
				assert.Empty(t, result.Label)
				assert.Nil(t, result.Probabilities)
				return
			}

			assert.False(t, result.Invalid)
			assert.Equal(t, tt.wantLabel, result.Label)
			require.Len(t, result.Probabilities, len(tt.labels))

			// Softmax output is a probability distribution.
			var sum float64
			for _, p := range result.Probabilities {
				assert.GreaterOrEqual(t, p, float32(0))
				assert.LessOrEqual(t, p, float32(1))
				sum += float64(p)
			}
			assert.InDelta(t, 1.0, sum, 1e-5)

			// Confidence matches the probability of the chosen label.
			maxProb := result.Probabilities[0]
			for _, p := range result.Probabilities[1:] {
				if p > maxProb {
					maxProb = p
				}
			}
			assert.Equal(t, maxProb, result.Confidence)
		})
	}
}

func TestSoftmaxMatchesDirectForm(t *testing.T) {
	t.Parallel()

	// Max-subtraction is a numeric safeguard, not a semantic change: for
	// small inputs both forms agree.
	scores := []float32{2.0, 1.0, 0.1}
	probs := softmax(scores)

	var sum float64
	for _, s := range scores {
		sum += math.Exp(float64(s))
	}
	for i, s := range scores {
		want := math.Exp(float64(s)) / sum
		assert.InDelta(t, want, float64(probs[i]), 1e-6)
	}
}

func TestSoftmaxOrderPreserving(t *testing.T) {
	t.Parallel()

	scores := []float32{0.3, -1.2, 2.4, 0.9}
	probs := softmax(scores)

	// Softmax is monotone, the ranking of scores carries over to
	// probabilities.
	for i := range scores {
		for j := range scores {
			if scores[i] > scores[j] {
				assert.Greater(t, probs[i], probs[j])
			}
		}
	}
}

func TestArgMax(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, argMax([]float32{3, 1, 2}))
	assert.Equal(t, 2, argMax([]float32{1, 2, 3}))
	assert.Equal(t, 0, argMax([]float32{5, 5, 5}))
	assert.Equal(t, 1, argMax([]float32{1, 7, 7}))
	assert.Equal(t, 0, argMax([]float32{0.5}))
}
