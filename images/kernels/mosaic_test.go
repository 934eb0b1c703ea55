package kernels

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"
)

func genRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			img.Pix[i+0] = uint8(rng.Intn(256))
			img.Pix[i+1] = uint8(rng.Intn(256))
			img.Pix[i+2] = uint8(rng.Intn(256))
			img.Pix[i+3] = 255
		}
	}
	return img
}

func TestMosaicSampleUsesTopLeftPixel(t *testing.T) {
	img := genRGBA(30, 30)
	want := img.RGBAAt(0, 0)
	wantSecond := img.RGBAAt(15, 0)

	Mosaic(img, image.Rect(0, 0, 30, 15), 15, ModeSample)

	for y := 0; y < 15; y++ {
		for x := 0; x < 15; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
		for x := 15; x < 30; x++ {
			if got := img.RGBAAt(x, y); got != wantSecond {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, wantSecond)
			}
		}
	}
}

func TestMosaicAverageIsBlockMean(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{0, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{100, 0, 0, 255})
	img.SetRGBA(0, 1, color.RGBA{200, 40, 0, 255})
	img.SetRGBA(1, 1, color.RGBA{100, 40, 3, 255})

	Mosaic(img, img.Rect, 2, ModeAverage)

	// R: 400/4=100, G: 80/4=20, B: 3/4 rounds to 1.
	want := color.RGBA{100, 20, 1, 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestMosaicClampsToImageBounds(t *testing.T) {
	img := genRGBA(20, 20)
	Mosaic(img, image.Rect(10, 10, 40, 40), 15, ModeSample)

	// The only block inside the image starts at (10,10) and is clipped to 20x20.
	want := img.RGBAAt(10, 10)
	for y := 10; y < 20; y++ {
		for x := 10; x < 20; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestMosaicSkipsBlocksOutsideImage(t *testing.T) {
	img := genRGBA(10, 10)
	before := append([]uint8(nil), img.Pix...)

	Mosaic(img, image.Rect(10, 0, 30, 10), 5, ModeAverage)
	Mosaic(img, image.Rect(-20, -20, -1, -1), 5, ModeAverage)

	if !bytes.Equal(before, img.Pix) {
		t.Fatalf("blocks anchored outside the image must not write")
	}
}

func TestMosaicNoopInputs(t *testing.T) {
	img := genRGBA(8, 8)
	before := append([]uint8(nil), img.Pix...)

	Mosaic(img, image.Rectangle{}, 4, ModeAverage)
	Mosaic(img, img.Rect, 0, ModeAverage)
	Mosaic(nil, img.Rect, 4, ModeAverage)

	if !bytes.Equal(before, img.Pix) {
		t.Fatalf("no-op inputs modified the image")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeAverage, "average": ModeAverage, "Sample": ModeSample, "legacy": ModeSample}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("blur"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func BenchmarkMosaicAverage_1080p_b15(b *testing.B) {
	img := genRGBA(1920, 1080)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Mosaic(img, img.Rect, 15, ModeAverage)
	}
}

func BenchmarkMosaicSample_1080p_b15(b *testing.B) {
	img := genRGBA(1920, 1080)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Mosaic(img, img.Rect, 15, ModeSample)
	}
}
