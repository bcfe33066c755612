package imaging

import (
	"math"
)

// Tensor is a channel-planar float32 model input with shape
// [1, 3, crop, crop]: all R values in row-major order, then all G, then all
// B. The plane ordering must match the trained model's input layout exactly;
// a mismatch produces no runtime error, only silently wrong predictions.
type Tensor struct {
	Data []float32
	Size int // crop size C, planes are C*C each
}

// CropNormalize extracts a centered Size x Size crop from src and converts it
// to a normalized channel-planar tensor.
//
// The crop offset is floor((S-C)/2) on both axes. When S-C is odd the extra
// pixel lands on the bottom/right edge; flooring is the documented convention
// here and must stay consistent with training-time preprocessing.
//
// Source positions outside the buffer (possible only if size > src dims)
// write zero to all three planes instead of failing. The alpha channel is
// ignored. Channel values are divided by 255 into [0,1]; NaN never enters
// the tensor, any NaN computation result is replaced by zero.
func CropNormalize(src *PixelBuffer, size int) Tensor {
	offsetX := (src.Width - size) / 2
	offsetY := (src.Height - size) / 2

	plane := size * size
	data := make([]float32, TensorChannels*plane)

	for y := 0; y < size; y++ {
		srcY := y + offsetY
		for x := 0; x < size; x++ {
			srcX := x + offsetX
			di := y*size + x

			if srcX < 0 || srcX >= src.Width || srcY < 0 || srcY >= src.Height {
				// data is zero initialized, nothing to write
				continue
			}

			r, g, b, _ := src.At(srcX, srcY)
			data[di] = guardNaN(float32(r) / 255.0)
			data[plane+di] = guardNaN(float32(g) / 255.0)
			data[2*plane+di] = guardNaN(float32(b) / 255.0)
		}
	}

	return Tensor{Data: data, Size: size}
}

// guardNaN replaces NaN with zero so it can never reach the interpreter.
func guardNaN(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	return v
}

// Len returns the total number of elements in the tensor.
func (t Tensor) Len() int {
	return len(t.Data)
}
