// Package kernels - In-place pixel kernels operating on *image.RGBA buffers.
package kernels

import (
	"fmt"
	"image"
	"strings"
)

// Mode selects how a mosaic block picks its fill colour.
//   - Average: the mean of every pixel in the block (a true mosaic).
//   - Sample: the block's top-left pixel (legacy output-compatible mode).
type Mode int

const (
	ModeAverage Mode = iota
	ModeSample
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAverage:
		return "average"
	case ModeSample:
		return "sample"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration name into a Mode. The empty string maps
// to ModeAverage.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average", "avg", "mean":
		return ModeAverage, nil
	case "sample", "legacy", "top-left":
		return ModeSample, nil
	default:
		return 0, fmt.Errorf("unknown mosaic mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Mosaic covers area of dst with flat colour blocks of size block x block.
//
// Blocks are laid on a grid anchored at area.Min with stride block. A block
// whose top-left corner falls outside dst.Rect is skipped. Each fill is clipped
// to dst.Rect but not to area, so edge blocks may spill past area by up to
// block-1 pixels, exactly as a grid anchored at the region origin would.
//
// Colours are read from dst itself, so pixels written by earlier calls are
// visible to later ones. Callers rely on this for last-writer-wins overlaps.
//
// Arguments:
//   - dst: The buffer to modify in place.
//   - area: The pixel rectangle to cover. An empty area is a no-op.
//   - block: The block edge length in pixels. Values below 1 are a no-op.
//   - mode: How each block's colour is chosen.
func Mosaic(dst *image.RGBA, area image.Rectangle, block int, mode Mode) {
	if dst == nil || block < 1 || area.Empty() {
		return
	}

	b := dst.Rect
	for y := area.Min.Y; y < area.Max.Y; y += block {
		for x := area.Min.X; x < area.Max.X; x += block {
			if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
				continue
			}

			cell := image.Rect(x, y, min(x+block, b.Max.X), min(y+block, b.Max.Y))

			var c [4]uint8
			if mode == ModeSample {
				off := dst.PixOffset(x, y)
				copy(c[:], dst.Pix[off:off+4])
			} else {
				c = average(dst, cell)
			}

			fill(dst, cell, c)
		}
	}
}

// average returns the rounded per-channel mean of the premultiplied pixels in r.
func average(img *image.RGBA, r image.Rectangle) [4]uint8 {
	var sum [4]uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		row := img.Pix[off : off+r.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			sum[0] += uint64(row[i])
			sum[1] += uint64(row[i+1])
			sum[2] += uint64(row[i+2])
			sum[3] += uint64(row[i+3])
		}
	}

	n := uint64(r.Dx() * r.Dy())
	var out [4]uint8
	for i := range sum {
		out[i] = uint8((sum[i] + n/2) / n)
	}
	return out
}

// fill paints r with c. The first row is written pixel by pixel and then
// copied into the remaining rows.
func fill(img *image.RGBA, r image.Rectangle, c [4]uint8) {
	rowLen := r.Dx() * 4
	first := img.PixOffset(r.Min.X, r.Min.Y)
	row := img.Pix[first : first+rowLen]
	for i := 0; i < rowLen; i += 4 {
		copy(row[i:i+4], c[:])
	}
	for y := r.Min.Y + 1; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		copy(img.Pix[off:off+rowLen], row)
	}
}
