package imaging

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/sevnet/sevnet-go/internal/errors"
)

// Resize scales src to exactly targetW x targetH using bilinear
// interpolation.
//
// The source is STRETCHED to the target geometry; aspect ratio is not
// preserved and no letterboxing is applied. This is part of the model input
// contract: the trained model saw stretched images, so "fixing" this to
// preserve aspect ratio would silently degrade predictions.
func Resize(src *PixelBuffer, targetW, targetH int) (*PixelBuffer, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, errors.Newf("invalid resize target %dx%d", targetW, targetH).
			Component("imaging").
			Category(errors.CategoryImageResize).
			Build()
	}
	if len(src.Pix) != src.Width*src.Height*Channels {
		return nil, errors.Newf("source buffer length %d does not match %dx%d", len(src.Pix), src.Width, src.Height).
			Component("imaging").
			Category(errors.CategoryImageResize).
			Build()
	}

	if src.Width == targetW && src.Height == targetH {
		return src, nil
	}

	//nolint:gosec // G115: target dimensions validated positive above
	out := resize.Resize(uint(targetW), uint(targetH), src.toRGBA(), resize.Bilinear)

	rgba, ok := out.(*image.RGBA)
	if !ok {
		// resize.Resize returns *image.RGBA for RGBA input, but defend
		// against library changes rather than panic on a bad assertion.
		return nil, errors.Newf("unexpected resized image type %T", out).
			Component("imaging").
			Category(errors.CategoryImageResize).
			Build()
	}

	dst := fromRGBA(rgba)
	if dst.Width != targetW || dst.Height != targetH {
		return nil, errors.Newf("resize produced %dx%d, want %dx%d", dst.Width, dst.Height, targetW, targetH).
			Component("imaging").
			Category(errors.CategoryImageResize).
			Build()
	}
	return dst, nil
}
