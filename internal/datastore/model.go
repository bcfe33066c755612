// model.go defines the data model for persisted classification results
package datastore

import "time"

// Classification represents a single classified image.
type Classification struct {
	ID             uint   `gorm:"primaryKey"`
	UUID           string `gorm:"uniqueIndex;size:36"`
	SourceNode     string
	Source         string  // originating file name or "api"
	Label          string  `gorm:"index:idx_classifications_label;size:20"` // empty when Invalid
	Confidence     float64 `gorm:"index:idx_classifications_confidence"`
	Invalid        bool    // true when the model output was unusable
	ModelVersion   string
	ProcessingTime time.Duration
	CreatedAt      time.Time `gorm:"index"`
	Scores         []Score   `gorm:"foreignKey:ClassificationID;constraint:OnDelete:CASCADE"`
}

// Score is the per-label softmax probability attached to a Classification.
type Score struct {
	ID               uint   `gorm:"primaryKey"`
	ClassificationID uint   `gorm:"index;not null"`
	Label            string `gorm:"size:20"`
	Probability      float64
}
