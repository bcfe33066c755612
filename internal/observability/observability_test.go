package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	require.NotNil(t, m.SevNet)
	require.NotNil(t, m.Registry())

	// Each Metrics instance owns its registry, repeated construction must
	// not collide on duplicate collector registration.
	m2, err := NewMetrics()
	require.NoError(t, err)
	assert.NotSame(t, m.Registry(), m2.Registry())
}

func TestSevNetMetricsObservation(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.SevNet.ClassificationCounter.WithLabelValues("severe").Inc()
	m.SevNet.ClassificationCounter.WithLabelValues("severe").Inc()
	m.SevNet.InvalidPredictions.Inc()
	m.SevNet.PipelineTotal.WithLabelValues("success").Inc()
	m.SevNet.ModelLoadedGauge.Set(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SevNet.ClassificationCounter.WithLabelValues("severe")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SevNet.ClassificationCounter.WithLabelValues("minor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SevNet.InvalidPredictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SevNet.ModelLoadedGauge))
}
