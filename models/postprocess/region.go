package postprocess

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-censor/images"
	"github.com/pkg/errors"
)

// Region is a detected box in normalized image-fraction coordinates.
//
// The origin is the top-left corner and both axes run over [0, 1]
// regardless of the pixel resolution of the image. Regions are values: they
// are created by a decoder and only read afterwards.
type Region struct {
	X1         float32 `json:"x1"`
	Y1         float32 `json:"y1"`
	X2         float32 `json:"x2"`
	Y2         float32 `json:"y2"`
	Confidence float32 `json:"confidence"`
}

// Normalize returns the region with inverted corners swapped so that
// X1 <= X2 and Y1 <= Y2.
func (r Region) Normalize() Region {
	if r.X2 < r.X1 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y2 < r.Y1 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// Validate checks that every coordinate is a finite number.
//
// Returns:
//   - error: ErrInvalidRegion (wrapped) naming the region, or nil.
func (r Region) Validate() error {
	for _, v := range [...]float32{r.X1, r.Y1, r.X2, r.Y2} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidRegion, "non-finite coordinates in %s", r)
		}
	}
	return nil
}

// ToRect maps the region onto a width x height pixel grid.
//
// Coordinates are scaled and truncated toward zero, then clamped to the grid.
//
// Arguments:
//   - width: The pixel width of the target image.
//   - height: The pixel height of the target image.
//
// Returns:
//   - images.Rect: The pixel rectangle, canonical and inside the grid.
//   - error: ErrInvalidRegion if a coordinate is not finite.
//
// @example
// r := Region{X1: 0.25, Y1: 0.25, X2: 0.75, Y2: 0.75}
// rect, _ := r.ToRect(400, 400) // (100,100)-(300,300)
func (r Region) ToRect(width, height int) (images.Rect, error) {
	if err := r.Validate(); err != nil {
		return images.Rect{}, err
	}
	r = r.Normalize()

	w := float32(width)
	h := float32(height)
	rect := images.Rect{
		X1: truncate(r.X1 * w),
		Y1: truncate(r.Y1 * h),
		X2: truncate(r.X2 * w),
		Y2: truncate(r.Y2 * h),
	}
	return rect.Clamp(width, height), nil
}

// truncate converts v to int toward zero, saturating far outside the int32
// range so that wild model outputs still clamp cleanly.
func truncate(v float32) int {
	const limit = 1 << 30
	switch {
	case v > limit:
		return limit
	case v < -limit:
		return -limit
	default:
		return int(v)
	}
}

// IoU returns the intersection over union of two regions in normalized space.
func (r Region) IoU(o Region) float32 {
	r = r.Normalize()
	o = o.Normalize()

	iw := math32.Min(r.X2, o.X2) - math32.Max(r.X1, o.X1)
	ih := math32.Min(r.Y2, o.Y2) - math32.Max(r.Y1, o.Y1)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Area returns the normalized area of the region.
func (r Region) Area() float32 {
	r = r.Normalize()
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// String formats the region for logs.
func (r Region) String() string {
	return fmt.Sprintf("Region (confidence %.2f): (%.3f, %.3f) -> (%.3f, %.3f)",
		r.Confidence, r.X1, r.Y1, r.X2, r.Y2)
}
