package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/datastore"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// NewRecord converts a classification result into its persisted form.
func NewRecord(settings *conf.Settings, result sevnet.Result, source string, elapsed time.Duration) (datastore.Classification, []datastore.Score) {
	classification := datastore.Classification{
		UUID:           uuid.New().String(),
		SourceNode:     settings.Main.Name,
		Source:         source,
		Label:          result.Label,
		Confidence:     float64(result.Confidence),
		Invalid:        result.Invalid,
		ModelVersion:   sevnet.ModelVersion(),
		ProcessingTime: elapsed,
		CreatedAt:      time.Now(),
	}

	var scores []datastore.Score
	for i, label := range settings.SevNet.Labels {
		if i >= len(result.Probabilities) {
			break
		}
		scores = append(scores, datastore.Score{
			Label:       label,
			Probability: float64(result.Probabilities[i]),
		})
	}

	return classification, scores
}
