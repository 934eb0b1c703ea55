// Package images - Image buffers for the censoring pipeline.
package images

import (
	"bytes"
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

// ErrInvalidImage is returned when an image is missing or has a zero width or height.
var ErrInvalidImage = errors.New("invalid image")

// Image represents an encoded image with a format, data, width, and height.
type Image struct {
	// The format of the image.
	Format Format `json:"format" yaml:"format"`
	// The data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// Decode decodes the image data and records the detected format and size.
//
// Returns:
//   - image.Image: The decoded pixel buffer.
//   - error: ErrInvalidImage (wrapped) if the data is empty, undecodable or
//     has a zero dimension.
func (i *Image) Decode() (image.Image, error) {
	if len(i.Data) == 0 {
		return nil, errors.Wrap(ErrInvalidImage, "image data is empty")
	}

	decoded, format, err := Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, err
	}

	i.Format = format
	i.Width = decoded.Bounds().Dx()
	i.Height = decoded.Bounds().Dy()

	return decoded, nil
}

// Validate checks that img is non-nil and covers at least one pixel.
//
// Arguments:
//   - img: The image to validate.
//
// Returns:
//   - error: ErrInvalidImage (wrapped with the offending dimensions) or nil.
func Validate(img image.Image) error {
	if img == nil {
		return errors.Wrap(ErrInvalidImage, "image is nil")
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return errors.Wrapf(ErrInvalidImage, "invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	return nil
}

// ToRGBA copies img into a new *image.RGBA whose bounds start at the origin.
//
// The result never shares pixel memory with img, so it is safe to mutate.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - *image.RGBA: An owned working copy of img.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	if src, ok := img.(*image.RGBA); ok {
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[srcOff:srcOff+rowLen])
		}
		return dst
	}

	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
