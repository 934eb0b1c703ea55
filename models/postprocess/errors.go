// Package postprocess - Error kinds raised while turning model output into regions.
package postprocess

import (
	"github.com/nvr-ai/go-censor/images"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidImage is returned for a nil or zero-dimension image.
	ErrInvalidImage = images.ErrInvalidImage
	// ErrMalformedOutput is returned when an output tensor is shorter than its
	// declared box count times the per-box attribute width.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrInvalidRegion is returned when a region's coordinates are not finite.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrInvalidConfig is returned for decoder or pixelator settings that
	// cannot describe any model layout.
	ErrInvalidConfig = errors.New("invalid configuration")
)
