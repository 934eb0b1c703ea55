package postprocess

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tensor is a flat float32 buffer with an implied row-major shape.
type Tensor struct {
	// Data holds the values in row-major order.
	Data []float32 `json:"data"`
	// Shape lists the dimensions, outermost first.
	Shape []int64 `json:"shape"`
}

// NewTensor builds a tensor and checks that data covers the whole shape.
//
// Arguments:
//   - data: The flat values.
//   - shape: The dimensions; every entry must be positive.
//
// Returns:
//   - Tensor: The tensor (sharing data).
//   - error: ErrMalformedOutput (wrapped) if the length and shape disagree.
func NewTensor(data []float32, shape ...int64) (Tensor, error) {
	t := Tensor{Data: data, Shape: shape}
	if err := t.Validate(); err != nil {
		return Tensor{}, err
	}
	return t, nil
}

// Elements returns the number of values the shape describes.
func (t Tensor) Elements() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate reports whether the data length matches the shape.
func (t Tensor) Validate() error {
	for _, d := range t.Shape {
		if d <= 0 {
			return errors.Wrapf(ErrMalformedOutput, "non-positive dimension in shape %v", t.Shape)
		}
	}
	if int64(len(t.Data)) != t.Elements() {
		return errors.Wrapf(ErrMalformedOutput, "tensor has %d values, shape %v needs %d",
			len(t.Data), t.Shape, t.Elements())
	}
	return nil
}

// String returns a short description without dumping the data.
func (t Tensor) String() string {
	return fmt.Sprintf("Tensor%v(%d values)", t.Shape, len(t.Data))
}
