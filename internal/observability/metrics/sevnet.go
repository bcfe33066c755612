// Package metrics provides custom Prometheus metrics for SevNet-Go.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// SevNetMetrics contains all Prometheus metrics related to classification
// operations.
type SevNetMetrics struct {
	ClassificationCounter *prometheus.CounterVec
	InvalidPredictions    prometheus.Counter

	// Performance metrics
	DecodeDuration     prometheus.Histogram
	PreprocessDuration prometheus.Histogram
	InvokeDuration     prometheus.Histogram
	PipelineDuration   *prometheus.HistogramVec

	// Operation counters
	PipelineTotal  *prometheus.CounterVec
	PipelineErrors *prometheus.CounterVec

	// Current state gauges
	ModelLoadedGauge prometheus.Gauge

	registry *prometheus.Registry
}

// NewSevNetMetrics creates a new instance of SevNetMetrics and registers the
// metrics with the provided registry.
func NewSevNetMetrics(registry *prometheus.Registry) (*SevNetMetrics, error) {
	m := &SevNetMetrics{registry: registry}
	m.initMetrics()
	if err := m.register(); err != nil {
		return nil, fmt.Errorf("failed to register SevNet metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for SevNetMetrics.
func (m *SevNetMetrics) initMetrics() {
	m.ClassificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sevnet_classifications_total",
			Help: "Total number of classifications partitioned by severity label.",
		},
		[]string{"label"},
	)

	m.InvalidPredictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sevnet_invalid_predictions_total",
			Help: "Total number of model outputs rejected due to NaN scores.",
		},
	)

	m.DecodeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sevnet_decode_duration_seconds",
			Help:    "Time taken to decode an input image",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10), // 0.1ms to ~100ms
		},
	)

	m.PreprocessDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sevnet_preprocess_duration_seconds",
			Help:    "Time taken to resize and crop-normalize an image into a tensor",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		},
	)

	m.InvokeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sevnet_model_invoke_duration_seconds",
			Help:    "Time taken for TensorFlow Lite model invocation",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		},
	)

	m.PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sevnet_pipeline_duration_seconds",
			Help:    "End to end time to classify a single image",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"status"},
	)

	m.PipelineTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sevnet_pipeline_total",
			Help: "Total number of classification requests",
		},
		[]string{"status"},
	)

	m.PipelineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sevnet_pipeline_errors_total",
			Help: "Total number of pipeline errors partitioned by stage",
		},
		[]string{"stage"},
	)

	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sevnet_model_loaded",
			Help: "Whether the severity model is currently loaded (1) or not (0)",
		},
	)
}

// register registers all metrics with the registry.
func (m *SevNetMetrics) register() error {
	collectors := []prometheus.Collector{
		m.ClassificationCounter,
		m.InvalidPredictions,
		m.DecodeDuration,
		m.PreprocessDuration,
		m.InvokeDuration,
		m.PipelineDuration,
		m.PipelineTotal,
		m.PipelineErrors,
		m.ModelLoadedGauge,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
