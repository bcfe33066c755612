package imaging

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/sevnet/sevnet-go/internal/errors"
)

// Decode turns a JPEG byte stream into an interleaved RGBA pixel buffer.
// Only JPEG input is supported; callers are expected to reject other formats
// upstream, but Decode validates structurally and does not trust that check.
// No partial buffer is ever returned on failure.
func Decode(data []byte) (*PixelBuffer, error) {
	if len(data) == 0 {
		return nil, errors.Newf("empty image data").
			Component("imaging").
			Category(errors.CategoryImageDecode).
			Build()
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryImageDecode).
			Context("image_bytes", len(data)).
			Build()
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.Newf("decoded image has invalid dimensions %dx%d", bounds.Dx(), bounds.Dy()).
			Component("imaging").
			Category(errors.CategoryImageDecode).
			Build()
	}

	// Normalize whatever subsampled YCbCr layout the decoder produced into
	// plain interleaved RGBA.
	if rgba, ok := img.(*image.RGBA); ok {
		return fromRGBA(rgba), nil
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return fromRGBA(rgba), nil
}
