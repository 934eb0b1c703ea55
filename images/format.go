package images

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	// Registers the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"
)

// Format represents supported image formats
type Format string

// Format constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG Format = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG Format = "png"
	// FormatGIF is the GIF image format.
	FormatGIF Format = "gif"
	// FormatBMP is the BMP image format.
	FormatBMP Format = "bmp"
	// FormatWebP is the WebP image format (decode only).
	FormatWebP Format = "webp"
)

// DefaultJPEGQuality is used by Encode when no quality is given.
const DefaultJPEGQuality = 90

// Decode reads an image in any registered format.
//
// Arguments:
//   - r: The encoded image stream.
//
// Returns:
//   - image.Image: The decoded image.
//   - Format: The detected source format.
//   - error: ErrInvalidImage (wrapped) if the stream cannot be decoded or
//     has a zero dimension.
func Decode(r io.Reader) (image.Image, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrapf(ErrInvalidImage, "decode: %v", err)
	}
	if err := Validate(img); err != nil {
		return nil, "", err
	}
	return img, Format(name), nil
}

// Encode writes img to w in the requested format.
//
// WebP has no encoder in golang.org/x/image, so WebP sources are written as PNG;
// use EncodedFormat to learn which format was actually produced.
//
// Arguments:
//   - w: The destination writer.
//   - img: The image to encode.
//   - format: The target format.
//   - quality: JPEG quality in [1,100]; zero selects DefaultJPEGQuality.
//
// Returns:
//   - error: An error if encoding fails.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var err error
	switch EncodedFormat(format) {
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatGIF:
		err = gif.Encode(w, img, nil)
	case FormatBMP:
		err = bmp.Encode(w, img)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", format)
	}
	return nil
}

// EncodedFormat returns the format Encode will actually produce for format.
func EncodedFormat(format Format) Format {
	switch format {
	case FormatJPEG, FormatGIF, FormatBMP, FormatPNG:
		return format
	default:
		return FormatPNG
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatBMP:
		return "image/bmp"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Extension returns the canonical file extension (with dot) for a format.
func Extension(format Format) string {
	if format == FormatJPEG {
		return ".jpg"
	}
	return "." + string(EncodedFormat(format))
}

// FormatFromPath infers a format from a file extension.
//
// Returns:
//   - Format: The inferred format.
//   - bool: False if the extension is not a supported image type.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	case ".gif":
		return FormatGIF, true
	case ".bmp":
		return FormatBMP, true
	case ".webp":
		return FormatWebP, true
	default:
		return "", false
	}
}
