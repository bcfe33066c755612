// Package imaging implements the deterministic image preprocessing pipeline:
// JPEG decode, stretch resize and center-crop normalization into the tensor
// layout the severity model expects.
package imaging

import (
	"image"
)

// Channels is the number of interleaved channels in a PixelBuffer (R,G,B,A).
const Channels = 4

// TensorChannels is the number of channel planes in the model input tensor.
const TensorChannels = 3

// PixelBuffer is a raw interleaved RGBA pixel buffer. The buffer is owned by
// exactly one pipeline stage at a time; stages hand it off, they do not share.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte // length Width*Height*4, R,G,B,A interleaved
}

// NewPixelBuffer allocates a zeroed pixel buffer of the given dimensions.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// fromRGBA wraps an image.RGBA into a PixelBuffer, copying only when the
// image has a non-trivial stride or origin.
func fromRGBA(img *image.RGBA) *PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if b.Min.X == 0 && b.Min.Y == 0 && img.Stride == w*Channels {
		return &PixelBuffer{Width: w, Height: h, Pix: img.Pix[:w*h*Channels]}
	}

	pb := NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		srcOff := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pb.Pix[y*w*Channels:(y+1)*w*Channels], img.Pix[srcOff:srcOff+w*Channels])
	}
	return pb
}

// toRGBA wraps the buffer as an image.RGBA without copying pixel data.
func (pb *PixelBuffer) toRGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    pb.Pix,
		Stride: pb.Width * Channels,
		Rect:   image.Rect(0, 0, pb.Width, pb.Height),
	}
}

// At returns the R,G,B,A bytes of the pixel at (x, y). Callers must ensure
// the coordinates are in bounds.
func (pb *PixelBuffer) At(x, y int) (r, g, b, a byte) {
	i := (y*pb.Width + x) * Channels
	return pb.Pix[i], pb.Pix[i+1], pb.Pix[i+2], pb.Pix[i+3]
}
