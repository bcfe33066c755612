package sevnet

import (
	"math"

	"github.com/sevnet/sevnet-go/internal/errors"
)

// Result is the one-shot outcome of classifying a single image. Either
// Invalid is true and no label is set, or Label holds one entry of the label
// set with its softmax confidence. No state is carried across images.
type Result struct {
	Label         string    // chosen label, empty when Invalid
	Confidence    float32   // softmax probability of the chosen label
	Probabilities []float32 // softmax output in label order, nil when Invalid
	Invalid       bool      // true when the model output was unusable (NaN)
}

// Classify normalizes raw model scores with softmax and selects the arg-max
// label. If any score is NaN the model output is unusable and an invalid
// result is returned instead of a label; NaN is detected before softmax so
// it can never poison the normalization. Ties select the lowest index.
func Classify(scores []float32, labels []string) (Result, error) {
	if len(scores) != len(labels) {
		return Result{}, errors.Newf("mismatched scores and labels lengths: %d vs %d", len(scores), len(labels)).
			Component("sevnet").
			Category(errors.CategoryValidation).
			Build()
	}
	if len(scores) == 0 {
		return Result{}, errors.Newf("empty score vector").
			Component("sevnet").
			Category(errors.CategoryValidation).
			Build()
	}

	for _, s := range scores {
		if math.IsNaN(float64(s)) {
			return Result{Invalid: true}, nil
		}
	}

	probs := softmax(scores)
	idx := argMax(probs)

	return Result{
		Label:         labels[idx],
		Confidence:    probs[idx],
		Probabilities: probs,
	}, nil
}

// softmax maps raw scores to a probability vector summing to 1. The maximum
// score is subtracted before exponentiation; this is mathematically
// identical to the plain exp(x)/sum(exp) form but cannot overflow for large
// inputs.
func softmax(scores []float32) []float32 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	exps := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		exps[i] = math.Exp(float64(s - maxScore))
		sum += exps[i]
	}

	probs := make([]float32, len(scores))
	for i, e := range exps {
		probs[i] = float32(e / sum)
	}
	return probs
}

// argMax returns the index of the first occurrence of the maximum value.
func argMax(values []float32) int {
	idx := 0
	for i, v := range values[1:] {
		if v > values[idx] {
			idx = i + 1
		}
	}
	return idx
}
