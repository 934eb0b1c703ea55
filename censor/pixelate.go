// Package censor - detects sensitive regions in images and pixelates them.
package censor

import (
	"image"

	"github.com/nvr-ai/go-censor/images"
	"github.com/nvr-ai/go-censor/images/kernels"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
)

// DefaultBlockSize is the mosaic block edge in pixels.
const DefaultBlockSize = 15

// ErrInvalidBlockSize is returned for a block size below one pixel.
var ErrInvalidBlockSize = errors.New("invalid block size")

// PixelateOptions controls the mosaic fill.
type PixelateOptions struct {
	// BlockSize is the edge length of each flat block in pixels.
	BlockSize int `json:"block_size" yaml:"block_size"`
	// Mode selects how a block's colour is chosen.
	Mode kernels.Mode `json:"mode" yaml:"mode"`
}

// DefaultPixelateOptions returns 15 pixel blocks filled with their average colour.
func DefaultPixelateOptions() PixelateOptions {
	return PixelateOptions{BlockSize: DefaultBlockSize, Mode: kernels.ModeAverage}
}

// Validate checks the block size.
func (o PixelateOptions) Validate() error {
	if o.BlockSize <= 0 {
		return errors.Wrapf(ErrInvalidBlockSize, "block size must be positive, got %d", o.BlockSize)
	}
	return nil
}

// Pixelate returns a copy of img with every region covered by a block mosaic.
//
// Regions are mapped to pixels by truncating x*width and y*height and then
// clamped to the image. Blocks start at each region's top-left pixel with a
// stride of BlockSize; a block is clipped to the image but not to its region.
// Regions are applied in order on the same buffer, so later regions
// overwrite earlier ones where they intersect. The input is never modified.
//
// Arguments:
//   - img: The source image.
//   - regions: Regions in normalized image-fraction coordinates.
//   - opts: Block size and fill mode.
//
// Returns:
//   - *image.RGBA: A fresh image, bounds starting at the origin.
//   - error: ErrInvalidImage, ErrInvalidBlockSize or ErrInvalidRegion (wrapped).
//
// @example
// out, err := censor.Pixelate(img, regions, censor.DefaultPixelateOptions())
func Pixelate(img image.Image, regions []postprocess.Region, opts PixelateOptions) (*image.RGBA, error) {
	if err := images.Validate(img); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	rects := make([]images.Rect, len(regions))
	for i, r := range regions {
		rect, err := r.ToRect(width, height)
		if err != nil {
			return nil, errors.Wrapf(err, "region %d", i)
		}
		rects[i] = rect
	}

	out := images.ToRGBA(img)
	for _, rect := range rects {
		kernels.Mosaic(out, rect.ToRectangle(), opts.BlockSize, opts.Mode)
	}
	return out, nil
}
