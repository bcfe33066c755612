package benchmark

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/imaging"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run SevNet inference benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(settings)
		},
	}

	return cmd
}

// benchmarkResults stores benchmark metrics
type benchmarkResults struct {
	totalInferences int
	avgPreprocess   time.Duration
	avgInference    time.Duration
}

func runBenchmark(settings *conf.Settings) error {
	var xnnpackResults, standardResults benchmarkResults

	// First run with XNNPACK
	fmt.Println("🚀 Testing with XNNPACK delegate:")
	settings.SevNet.UseXNNPACK = true
	if err := runInferenceBenchmark(settings, &xnnpackResults); err != nil {
		fmt.Printf("❌ XNNPACK benchmark failed: %v\n", err)
	}

	// Then run without XNNPACK
	fmt.Println("\n🐌 Testing standard CPU inference:")
	settings.SevNet.UseXNNPACK = false
	if err := runInferenceBenchmark(settings, &standardResults); err != nil {
		return fmt.Errorf("❌ standard CPU inference benchmark failed: %w", err)
	}

	fmt.Printf("\nResults:\n")
	fmt.Printf("Method         Preprocess    Inference\n")
	fmt.Printf("─────────────  ────────────  ────────────\n")
	printRow("Standard", &standardResults)
	printRow("XNNPACK", &xnnpackResults)
	fmt.Printf("─────────────  ────────────  ────────────\n")

	if xnnpackResults.totalInferences > 0 && standardResults.totalInferences > 0 {
		speedImprovement := (float64(standardResults.avgInference.Milliseconds()) -
			float64(xnnpackResults.avgInference.Milliseconds())) /
			float64(standardResults.avgInference.Milliseconds()) * 100
		fmt.Printf("\n🚀 Speed improvement with XNNPACK: %.1f%%\n", speedImprovement)
	}

	return nil
}

func printRow(name string, results *benchmarkResults) {
	if results.totalInferences > 0 {
		fmt.Printf("%-13s  %8.2f ms   %8.2f ms\n", name,
			float64(results.avgPreprocess.Microseconds())/1000,
			float64(results.avgInference.Microseconds())/1000)
	} else {
		fmt.Printf("%-13s  ❌ Failed\n", name)
	}
}

func runInferenceBenchmark(settings *conf.Settings, results *benchmarkResults) error {
	sn, err := sevnet.NewSevNet(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize SevNet: %w", err)
	}
	defer sn.Delete()

	// Mid-gray test frame at the configured input size.
	inputSize := settings.SevNet.InputSize
	frame := imaging.NewPixelBuffer(inputSize, inputSize)
	for i := range frame.Pix {
		frame.Pix[i] = 128
	}

	duration := 30 * time.Second
	startTime := time.Now()
	var totalInferences int
	var totalPreprocess, totalInference time.Duration

	fmt.Println("⏳ Running benchmark for 30 seconds...")

	for time.Since(startTime) < duration {
		preStart := time.Now()
		resized, err := imaging.Resize(frame, inputSize, inputSize)
		if err != nil {
			return fmt.Errorf("resize failed: %w", err)
		}
		tensor := imaging.CropNormalize(resized, settings.SevNet.CropSize)
		totalPreprocess += time.Since(preStart)

		invokeStart := time.Now()
		if _, err := sn.Invoke(tensor); err != nil {
			return fmt.Errorf("inference failed: %w", err)
		}
		totalInference += time.Since(invokeStart)
		totalInferences++

		if totalInferences%10 == 0 {
			avgTime := totalInference / time.Duration(totalInferences)
			fmt.Printf("\r🔄 Inferences: \033[1;36m%d\033[0m, Average time: \033[1;33m%dms\033[0m",
				totalInferences, avgTime.Milliseconds())
		}
	}
	fmt.Println()

	if totalInferences == 0 {
		return fmt.Errorf("no inferences completed")
	}

	results.totalInferences = totalInferences
	results.avgPreprocess = totalPreprocess / time.Duration(totalInferences)
	results.avgInference = totalInference / time.Duration(totalInferences)

	return nil
}
