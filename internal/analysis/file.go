package analysis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/datastore"
	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/observability/metrics"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// FileAnalysis classifies a single image file and prints the outcome. The
// result is persisted when an output database is enabled.
func FileAnalysis(ctx context.Context, settings *conf.Settings, inputFile string) error {
	sn, err := sevnet.NewSevNet(settings)
	if err != nil {
		return err
	}
	defer sn.Delete()

	return fileAnalysisWithAdapter(ctx, settings, sn, nil, inputFile)
}

// fileAnalysisWithAdapter is the testable core of FileAnalysis: the adapter
// is injected rather than constructed.
func fileAnalysisWithAdapter(ctx context.Context, settings *conf.Settings, adapter sevnet.Adapter, m *metrics.SevNetMetrics, inputFile string) error {
	data, err := os.ReadFile(inputFile) //nolint:gosec // G304: inputFile is a user supplied CLI argument
	if err != nil {
		return errors.New(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("input_file", inputFile).
			Build()
	}

	pipeline := New(settings, adapter, m)

	start := time.Now()
	result, err := pipeline.ProcessImage(ctx, data)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	printResult(settings, inputFile, result, elapsed)

	return saveResult(settings, result, inputFile, elapsed)
}

// printResult writes a human readable classification summary to stdout.
func printResult(settings *conf.Settings, source string, result sevnet.Result, elapsed time.Duration) {
	if result.Invalid {
		fmt.Printf("%s: prediction unavailable (model output invalid)\n", source)
		return
	}

	fmt.Printf("%s: %s (%.1f%%) in %v\n", source, result.Label, result.Confidence*100, elapsed.Round(time.Millisecond))

	if settings.Debug {
		for i, label := range settings.SevNet.Labels {
			if i < len(result.Probabilities) {
				fmt.Printf("  %-10s %.4f\n", label, result.Probabilities[i])
			}
		}
	}
}

// saveResult persists the classification when an output database is enabled.
func saveResult(settings *conf.Settings, result sevnet.Result, source string, elapsed time.Duration) error {
	store := datastore.New(settings)
	if store == nil {
		return nil
	}

	if err := store.Open(); err != nil {
		return errors.New(err).
			Component("analysis").
			Category(errors.CategoryDatabase).
			Build()
	}
	defer func() {
		if err := store.Close(); err != nil {
			getLogger().Warn("Failed to close datastore", "error", err)
		}
	}()

	classification, scores := NewRecord(settings, result, source, elapsed)
	return store.Save(&classification, scores)
}
