package censor

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-censor/images"
	"github.com/nvr-ai/go-censor/images/kernels"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns an image where every pixel is distinct within a 256 pixel tile.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func sampleOpts(block int) PixelateOptions {
	return PixelateOptions{BlockSize: block, Mode: kernels.ModeSample}
}

func TestPixelateEmptyRegionsCopiesInput(t *testing.T) {
	src := gradient(64, 48)

	out, err := Pixelate(src, nil, DefaultPixelateOptions())
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
	assert.Equal(t, src.Rect, out.Rect)

	out.Pix[0] = ^out.Pix[0]
	assert.NotEqual(t, src.Pix[0], out.Pix[0], "output must not alias the input")
}

func TestPixelateMapsFractionsToPixels(t *testing.T) {
	src := gradient(400, 400)
	before := bytes.Clone(src.Pix)

	out, err := Pixelate(src, []postprocess.Region{{X1: 0.25, Y1: 0.25, X2: 0.5, Y2: 0.5}}, sampleOpts(15))
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix, "input must not be modified")

	// The first block spans [100,115) on both axes and takes the colour at (100,100).
	want := src.RGBAAt(100, 100)
	for y := 100; y < 115; y++ {
		for x := 100; x < 115; x++ {
			assert.Equal(t, want, out.RGBAAt(x, y), "(%d,%d)", x, y)
		}
	}
	assert.Equal(t, src.RGBAAt(115, 100), out.RGBAAt(115, 100), "second block starts at its own corner")

	// Outside the region nothing changes.
	assert.Equal(t, src.RGBAAt(99, 99), out.RGBAAt(99, 99))
	assert.Equal(t, src.RGBAAt(300, 300), out.RGBAAt(300, 300))

	// The last column of blocks starts at 190 and spills 5 pixels past x=200.
	assert.Equal(t, src.RGBAAt(190, 100), out.RGBAAt(204, 100))
	assert.Equal(t, src.RGBAAt(205, 100), out.RGBAAt(205, 100))
}

func TestPixelateClampsToImage(t *testing.T) {
	src := gradient(256, 256)

	out, err := Pixelate(src, []postprocess.Region{{X1: 0.9, Y1: 0.9, X2: 1.0, Y2: 1.2}}, sampleOpts(15))
	require.NoError(t, err)
	assert.Equal(t, src.Rect, out.Rect)

	// Columns start at truncate(0.9*256)=230; 230+15+15 > 256 so the second block is clipped.
	assert.Equal(t, src.RGBAAt(245, 245), out.RGBAAt(255, 255))
}

func TestPixelateLaterRegionsWin(t *testing.T) {
	src := gradient(100, 100)
	a := postprocess.Region{X1: 0, Y1: 0, X2: 0.5, Y2: 0.5}
	b := postprocess.Region{X1: 0.25, Y1: 0.25, X2: 0.75, Y2: 0.75}

	ab, err := Pixelate(src, []postprocess.Region{a, b}, sampleOpts(10))
	require.NoError(t, err)

	onlyA, err := Pixelate(src, []postprocess.Region{a}, sampleOpts(10))
	require.NoError(t, err)
	thenB, err := Pixelate(onlyA, []postprocess.Region{b}, sampleOpts(10))
	require.NoError(t, err)
	assert.Equal(t, thenB.Pix, ab.Pix, "regions apply sequentially on one buffer")

	ba, err := Pixelate(src, []postprocess.Region{b, a}, sampleOpts(10))
	require.NoError(t, err)
	assert.NotEqual(t, ab.Pix, ba.Pix, "order matters where regions intersect")
}

func TestPixelateDeterministic(t *testing.T) {
	src := gradient(123, 77)
	regions := []postprocess.Region{{X1: 0.1, Y1: 0.2, X2: 0.7, Y2: 0.9}, {X1: 0.5, Y1: 0, X2: 1, Y2: 0.3}}

	first, err := Pixelate(src, regions, DefaultPixelateOptions())
	require.NoError(t, err)
	second, err := Pixelate(src, regions, DefaultPixelateOptions())
	require.NoError(t, err)
	assert.Equal(t, images.ComputeChecksum(first), images.ComputeChecksum(second))
}

func TestPixelateInvertedRegion(t *testing.T) {
	src := gradient(100, 100)

	inverted, err := Pixelate(src, []postprocess.Region{{X1: 0.6, Y1: 0.6, X2: 0.2, Y2: 0.2}}, sampleOpts(8))
	require.NoError(t, err)
	ordered, err := Pixelate(src, []postprocess.Region{{X1: 0.2, Y1: 0.2, X2: 0.6, Y2: 0.6}}, sampleOpts(8))
	require.NoError(t, err)
	assert.Equal(t, ordered.Pix, inverted.Pix)
}

func TestPixelateErrors(t *testing.T) {
	src := gradient(10, 10)
	before := bytes.Clone(src.Pix)

	_, err := Pixelate(src, []postprocess.Region{{X1: 0, Y1: 0, X2: 0.5, Y2: 0.5}, {X1: math32.NaN(), Y2: 1}}, DefaultPixelateOptions())
	assert.True(t, errors.Is(err, postprocess.ErrInvalidRegion), "got %v", err)
	assert.Contains(t, err.Error(), "region 1")
	assert.Equal(t, before, src.Pix, "a rejected call leaves the input untouched")

	_, err = Pixelate(src, nil, PixelateOptions{BlockSize: 0})
	assert.True(t, errors.Is(err, ErrInvalidBlockSize), "got %v", err)

	_, err = Pixelate(nil, nil, DefaultPixelateOptions())
	assert.True(t, errors.Is(err, images.ErrInvalidImage), "got %v", err)

	_, err = Pixelate(image.NewRGBA(image.Rect(0, 0, 0, 5)), nil, DefaultPixelateOptions())
	assert.True(t, errors.Is(err, images.ErrInvalidImage), "got %v", err)
}
