// Package analysis orchestrates the image classification pipeline: decode,
// resize, crop-normalize, inference and label selection.
package analysis

import (
	"context"
	"time"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/imaging"
	"github.com/sevnet/sevnet-go/internal/observability/metrics"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// Pipeline runs single images through the preprocessing and classification
// stages. It holds no per-image state: every call allocates its own buffers,
// so concurrent ProcessImage calls never share mutable data.
type Pipeline struct {
	settings *conf.Settings
	adapter  sevnet.Adapter
	metrics  *metrics.SevNetMetrics // nil disables metric observation
}

// New creates a pipeline on top of the given inference adapter. The adapter
// must already be initialized; the pipeline never polls global readiness.
func New(settings *conf.Settings, adapter sevnet.Adapter, m *metrics.SevNetMetrics) *Pipeline {
	return &Pipeline{
		settings: settings,
		adapter:  adapter,
		metrics:  m,
	}
}

// ProcessImage classifies a single JPEG image. The context is checked
// between stages so a superseded or cancelled request stops early instead of
// occupying the interpreter. All failures abort the pipeline and surface to
// the caller; nothing is retried here.
func (p *Pipeline) ProcessImage(ctx context.Context, data []byte) (sevnet.Result, error) {
	start := time.Now()

	result, err := p.process(ctx, data)

	if p.metrics != nil {
		status := "success"
		switch {
		case err != nil:
			status = "error"
		case result.Invalid:
			status = "invalid"
		}
		p.metrics.PipelineTotal.WithLabelValues(status).Inc()
		p.metrics.PipelineDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
		if err == nil && !result.Invalid {
			p.metrics.ClassificationCounter.WithLabelValues(result.Label).Inc()
		}
		if result.Invalid {
			p.metrics.InvalidPredictions.Inc()
		}
	}

	return result, err
}

func (p *Pipeline) process(ctx context.Context, data []byte) (sevnet.Result, error) {
	if err := checkContext(ctx); err != nil {
		return sevnet.Result{}, err
	}

	decodeStart := time.Now()
	pixels, err := imaging.Decode(data)
	if err != nil {
		p.countStageError("decode")
		return sevnet.Result{}, err
	}
	p.observe(func(m *metrics.SevNetMetrics) {
		m.DecodeDuration.Observe(time.Since(decodeStart).Seconds())
	})

	if err := checkContext(ctx); err != nil {
		return sevnet.Result{}, err
	}

	preprocessStart := time.Now()
	inputSize := p.settings.SevNet.InputSize
	resized, err := imaging.Resize(pixels, inputSize, inputSize)
	if err != nil {
		p.countStageError("resize")
		return sevnet.Result{}, err
	}

	tensor := imaging.CropNormalize(resized, p.settings.SevNet.CropSize)
	p.observe(func(m *metrics.SevNetMetrics) {
		m.PreprocessDuration.Observe(time.Since(preprocessStart).Seconds())
	})

	if err := checkContext(ctx); err != nil {
		return sevnet.Result{}, err
	}

	invokeStart := time.Now()
	scores, err := p.adapter.Invoke(tensor)
	if err != nil {
		p.countStageError("invoke")
		return sevnet.Result{}, err
	}
	p.observe(func(m *metrics.SevNetMetrics) {
		m.InvokeDuration.Observe(time.Since(invokeStart).Seconds())
	})

	result, err := sevnet.Classify(scores, p.settings.SevNet.Labels)
	if err != nil {
		p.countStageError("classify")
		return sevnet.Result{}, err
	}

	return result, nil
}

func (p *Pipeline) observe(fn func(*metrics.SevNetMetrics)) {
	if p.metrics != nil {
		fn(p.metrics)
	}
}

func (p *Pipeline) countStageError(stage string) {
	if p.metrics != nil {
		p.metrics.PipelineErrors.WithLabelValues(stage).Inc()
	}
}

// checkContext converts context expiry into a categorized error.
func checkContext(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}

	category := errors.CategoryCancellation
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		category = errors.CategoryTimeout
	}

	return errors.New(ctx.Err()).
		Component("analysis").
		Category(category).
		Build()
}
