// Package images - Pixel-space geometry shared by the pixelator and NMS.
package images

import "image"

// Rect is a lightweight pixel-space box.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// Canon returns the rectangle with its corners swapped as needed so that
// X1 <= X2 and Y1 <= Y2.
func (r Rect) Canon() Rect {
	if r.X2 < r.X1 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y2 < r.Y1 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// Clamp restricts the rectangle to the [0,width] x [0,height] pixel grid.
//
// Out-of-range coordinates are pulled onto the nearest edge rather than
// rejected, so a box hanging off the frame keeps its visible part.
//
// Arguments:
//   - width: The width of the image the rectangle lives in.
//   - height: The height of the image the rectangle lives in.
//
// Returns:
//   - Rect: The clamped, canonical rectangle.
func (r Rect) Clamp(width, height int) Rect {
	r = r.Canon()
	r.X1 = min(max(r.X1, 0), width)
	r.X2 = min(max(r.X2, 0), width)
	r.Y1 = min(max(r.Y1, 0), height)
	r.Y2 = min(max(r.Y2, 0), height)
	return r
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.X1 >= r.X2 || r.Y1 >= r.Y2
}

// Area returns the number of pixels inside the rectangle.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// ToRectangle converts the box to an image.Rectangle.
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// CalculateIoU measures the overlap of two rectangles as
// Area(intersection) / Area(union), a value in [0, 1].
//
// The intersection is bounded by the maximum of the top-left corners and the
// minimum of the bottom-right corners. A non-positive width or height means
// the rectangles do not overlap and 0 is returned before any division.
//
// Example:
//
// ```go
//
//	a := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	b := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	iou := CalculateIoU(a, b) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return float32(interArea) / float32(unionArea)
}
