package sevnet

import (
	tflite "github.com/tphakala/go-tflite"

	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/imaging"
)

// Adapter is the opaque inference boundary: a preprocessed tensor goes in,
// one raw score per label comes out. Adapter failures surface as errors with
// the inference category, never as silent zero scores.
type Adapter interface {
	Invoke(tensor imaging.Tensor) ([]float32, error)
}

// Invoke runs the severity model on the given tensor and returns the raw
// class scores. The interpreter is not reentrant so invocations are
// serialized; each call copies its output before releasing the lock, so
// concurrent callers never observe each other's buffers.
func (sn *SevNet) Invoke(tensor imaging.Tensor) ([]float32, error) {
	sn.mu.Lock()
	defer sn.mu.Unlock()

	if sn.Interpreter == nil {
		return nil, errors.Newf("model not loaded").
			Component("sevnet").
			Category(errors.CategoryInference).
			Build()
	}

	inputTensor := sn.Interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("sevnet").
			Category(errors.CategoryInference).
			Build()
	}

	input := inputTensor.Float32s()
	if len(input) != tensor.Len() {
		return nil, errors.Newf("input shape mismatch: model expects %d floats, got %d", len(input), tensor.Len()).
			Component("sevnet").
			Category(errors.CategoryInference).
			Context("model_input_len", len(input)).
			Context("tensor_len", tensor.Len()).
			Build()
	}
	copy(input, tensor.Data)

	if status := sn.Interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed: %v", status).
			Component("sevnet").
			Category(errors.CategoryInference).
			Context("status_code", status).
			Build()
	}

	outputTensor := sn.Interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return nil, errors.Newf("cannot get output tensor").
			Component("sevnet").
			Category(errors.CategoryInference).
			Build()
	}

	outputSize := outputTensor.Dim(outputTensor.NumDims() - 1)
	scores := make([]float32, outputSize)
	copy(scores, outputTensor.Float32s())

	return scores, nil
}
