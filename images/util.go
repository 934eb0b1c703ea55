package images

import (
	"crypto/md5"
	"fmt"
	"image"
)

// ComputeChecksum generates a deterministic checksum of an image's pixels to verify idempotency.
//
// Only the pixels inside the bounds are hashed, so sub-images and re-based
// copies of the same content produce the same checksum.
//
// Arguments:
// - img: The image to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := ComputeChecksum(censored)
//	fmt.Printf("Output checksum: %s\n", checksum)
//
// ```
func ComputeChecksum(img *image.RGBA) string {
	if img == nil || img.Rect.Empty() {
		return "empty"
	}

	hash := md5.New()
	rowLen := img.Rect.Dx() * 4
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		off := img.PixOffset(img.Rect.Min.X, y)
		hash.Write(img.Pix[off : off+rowLen])
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
