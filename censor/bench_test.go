package censor

import (
	"context"
	"image"
	"testing"

	"github.com/nvr-ai/go-censor/inference"
	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/nudenet"
	"github.com/nvr-ai/go-censor/models/postprocess"
)

func BenchmarkPixelate_1080p_FourRegions(b *testing.B) {
	img := gradient(1920, 1080)
	regions := []postprocess.Region{
		{X1: 0.1, Y1: 0.1, X2: 0.3, Y2: 0.4},
		{X1: 0.4, Y1: 0.2, X2: 0.6, Y2: 0.5},
		{X1: 0.5, Y1: 0.5, X2: 0.9, Y2: 0.9},
		{X1: 0, Y1: 0.8, X2: 1, Y2: 1},
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Pixelate(img, regions, DefaultPixelateOptions()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkProcess_720p measures everything except the model itself.
func BenchmarkProcess_720p(b *testing.B) {
	m, err := nudenet.NewModel(model.NewModelArgs{})
	if err != nil {
		b.Fatal(err)
	}
	engine := inference.NewStaticEngine(nudenetOutput(chest, face))
	p, err := New(m, engine, DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	var img image.Image = gradient(1280, 720)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Process(context.Background(), img); err != nil {
			b.Fatal(err)
		}
	}
}
