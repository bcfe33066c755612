// sevnet.go SevNet model specific code
package sevnet

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/cpuspec"
	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/imaging"
)

// DefaultModelName is the expected filesystem basename for the severity
// model file used when searching standard paths.
const DefaultModelName = "SevNet_Damage_V1_Model_FP32.tflite"

// DefaultModelDirectory is the directory name where model files are expected
// to be found, resolved against various base paths during discovery.
const DefaultModelDirectory = "model"

// Model version string reported in logs and API responses.
var modelVersion = "SevNet Damage V1 FP32"

// SevNet represents the severity classification model with its interpreter
// and configuration.
type SevNet struct {
	Interpreter *tflite.Interpreter
	Settings    *conf.Settings
	ModelPath   string // resolved model path, empty if embedded lookup failed
	mu          sync.Mutex
}

// NewSevNet initializes a new SevNet instance with given settings.
func NewSevNet(settings *conf.Settings) (*SevNet, error) {
	sn := &SevNet{
		Settings: settings,
	}

	if err := sn.initializeModel(); err != nil {
		return nil, errors.New(fmt.Errorf("SevNet: failed to initialize model: %w", err)).
			Component("sevnet").
			Category(errors.CategoryModelInit).
			ModelContext(settings.SevNet.ModelPath, modelVersion).
			Build()
	}

	if err := sn.loadLabels(); err != nil {
		sn.Delete()
		return nil, errors.New(fmt.Errorf("SevNet: failed to load labels: %w", err)).
			Component("sevnet").
			Category(errors.CategoryLabelLoad).
			Context("label_path", settings.SevNet.LabelPath).
			Build()
	}

	if err := sn.validateModelAndLabels(); err != nil {
		sn.Delete()
		return nil, errors.New(fmt.Errorf("SevNet: model validation failed: %w", err)).
			Component("sevnet").
			Category(errors.CategoryValidation).
			ModelContext(settings.SevNet.ModelPath, modelVersion).
			Build()
	}

	return sn, nil
}

// initializeModel loads the model file and creates the TFLite interpreter.
func (sn *SevNet) initializeModel() error {
	start := time.Now()

	modelData, err := sn.loadModel()
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryModelLoad).
			ModelContext(sn.Settings.SevNet.ModelPath, modelVersion).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return errors.Newf("cannot load TensorFlow Lite model").
			Category(errors.CategoryModelInit).
			ModelContext(sn.Settings.SevNet.ModelPath, modelVersion).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	threads := sn.determineThreadCount(sn.Settings.SevNet.Threads)

	options := tflite.NewInterpreterOptions()

	log := GetLogger()
	if sn.Settings.SevNet.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count
		if delegate == nil {
			log.Warn("Failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, user_data any) {
		GetLogger().Error("TFLite error", slog.String("message", msg))
	}, nil)

	sn.Interpreter = tflite.NewInterpreter(model, options)
	if sn.Interpreter == nil {
		return fmt.Errorf("cannot create interpreter")
	}
	if status := sn.Interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("tensor allocation failed")
	}

	// TFLite keeps its own copy of the model data
	runtime.GC()

	if sn.Settings.SevNet.ModelPath != "" {
		modelVersion = filepath.Base(sn.Settings.SevNet.ModelPath)
	}

	spec := cpuspec.GetCPUSpec()
	if sn.Settings.SevNet.Threads == 0 && spec.PerformanceCores > 0 {
		log.Info("SevNet model initialized",
			slog.String("model", modelVersion),
			slog.Int("threads", threads),
			slog.Int("performance_cores", spec.PerformanceCores),
			slog.Int("total_cpus", runtime.NumCPU()))
	} else {
		log.Info("SevNet model initialized",
			slog.String("model", modelVersion),
			slog.Int("threads", threads),
			slog.Int("total_cpus", runtime.NumCPU()))
	}
	return nil
}

// determineThreadCount calculates the number of interpreter threads based on
// settings and system capabilities.
func (sn *SevNet) determineThreadCount(configuredThreads int) int {
	systemCpuCount := runtime.NumCPU()

	if configuredThreads == 0 {
		spec := cpuspec.GetCPUSpec()
		if optimal := spec.GetOptimalThreadCount(); optimal > 0 {
			return min(optimal, systemCpuCount)
		}
		return systemCpuCount
	}

	return min(configuredThreads, systemCpuCount)
}

// loadModel reads the model file from the configured path or standard paths.
func (sn *SevNet) loadModel() ([]byte, error) {
	start := time.Now()

	if sn.Settings.SevNet.ModelPath != "" {
		modelPath := expandPath(sn.Settings.SevNet.ModelPath)

		data, err := os.ReadFile(modelPath) //nolint:gosec // G304: modelPath is from application settings
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				ModelContext(modelPath, "external").
				Timing("model-file-read", time.Since(start)).
				Build()
		}

		sn.ModelPath = modelPath
		sn.Debug("Loaded external model file: %s (size: %d MB)", modelPath, len(data)/1024/1024)
		return data, nil
	}

	data, path, err := tryLoadModelFromStandardPaths(DefaultModelName)
	if err != nil {
		return nil, err
	}
	sn.ModelPath = path
	GetLogger().Info("Loaded model from standard path", slog.String("path", path))
	return data, nil
}

// tryLoadModelFromStandardPaths attempts to load the model from standard
// locations. The returned error includes all attempted paths for debugging.
func tryLoadModelFromStandardPaths(modelName string) (data []byte, path string, err error) {
	candidatePaths := []string{
		filepath.Join(DefaultModelDirectory, modelName),
		filepath.Join("data", DefaultModelDirectory, modelName),
		filepath.Join(string(filepath.Separator), "usr", "share", "sevnet-go", DefaultModelDirectory, modelName),
		filepath.Join(string(filepath.Separator), "opt", "sevnet-go", DefaultModelDirectory, modelName),
	}

	if home := os.Getenv("HOME"); home != "" {
		candidatePaths = append(candidatePaths,
			filepath.Join(home, ".local", "share", "sevnet-go", DefaultModelDirectory, modelName))
	}

	if exePath, execErr := os.Executable(); execErr == nil {
		exeDir := filepath.Dir(exePath)
		candidatePaths = append(candidatePaths,
			filepath.Join(exeDir, DefaultModelDirectory, modelName),
			filepath.Join(exeDir, "..", DefaultModelDirectory, modelName))
	}

	// Read directly instead of os.Stat first to avoid TOCTOU
	for _, candidatePath := range candidatePaths {
		fileData, readErr := os.ReadFile(candidatePath) //nolint:gosec // G304: candidatePath built from known safe paths
		if readErr == nil {
			return fileData, candidatePath, nil
		}
	}

	return nil, "", errors.Newf("model '%s' not found in standard paths", modelName).
		Category(errors.CategoryModelLoad).
		Context("attempted_file", modelName).
		Context("attempted_paths", candidatePaths).
		Build()
}

// expandPath expands environment variables and a leading ~ in a file path.
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// validateModelAndLabels checks that the number of labels matches the
// model's output size and that the input tensor matches the configured
// tensor geometry.
func (sn *SevNet) validateModelAndLabels() error {
	outputTensor := sn.Interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return errors.Newf("cannot get output tensor from model").
			Category(errors.CategoryValidation).
			Build()
	}

	modelOutputSize := outputTensor.Dim(outputTensor.NumDims() - 1)
	labelCount := len(sn.Settings.SevNet.Labels)

	if labelCount != modelOutputSize {
		return errors.Newf("label count mismatch: model expects %d classes but label set has %d labels",
			modelOutputSize, labelCount).
			Category(errors.CategoryValidation).
			Context("expected_labels", modelOutputSize).
			Context("actual_labels", labelCount).
			Build()
	}

	inputTensor := sn.Interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return errors.Newf("cannot get input tensor from model").
			Category(errors.CategoryValidation).
			Build()
	}

	crop := sn.Settings.SevNet.CropSize
	wantLen := imaging.TensorChannels * crop * crop
	if gotLen := len(inputTensor.Float32s()); gotLen != wantLen {
		return errors.Newf("input tensor size mismatch: model expects %d floats, crop size %d yields %d",
			gotLen, crop, wantLen).
			Category(errors.CategoryValidation).
			Context("model_input_len", gotLen).
			Context("crop_size", crop).
			Build()
	}

	sn.Debug("Model validation successful: %d labels match model output size", modelOutputSize)
	return nil
}

// ModelVersion returns the human readable model version string.
func ModelVersion() string {
	return modelVersion
}

// Delete releases resources used by the TensorFlow Lite interpreter.
func (sn *SevNet) Delete() {
	if sn.Interpreter != nil {
		sn.Interpreter.Delete()
		sn.Interpreter = nil
	}
}

// Debug prints debug messages if debug mode is enabled.
func (sn *SevNet) Debug(format string, v ...any) {
	if sn.Settings.SevNet.Debug {
		GetLogger().Debug(fmt.Sprintf(format, v...))
	}
}
