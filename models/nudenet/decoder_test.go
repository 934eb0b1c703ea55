package nudenet

// Tests for the NudeNet output decoder: acceptance thresholds, category
// tie-breaking, ordering, layout validation and the model wrapper.

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outputBuilder writes candidate rows into a zeroed reference-sized output.
type outputBuilder struct {
	cfg  DecoderConfig
	data []float32
}

func newOutput(cfg DecoderConfig) *outputBuilder {
	return &outputBuilder{cfg: cfg, data: make([]float32, cfg.OutputSize())}
}

func (b *outputBuilder) row(i int, box [4]float32, objectness float32, scores ...float32) *outputBuilder {
	off := i * b.cfg.AttributesPerBox
	copy(b.data[off:], box[:])
	b.data[off+4] = objectness
	copy(b.data[off+5:off+5+b.cfg.NumCategories], scores)
	return b
}

// TestDecodeThresholdBoundary validates that both thresholds are strict.
//
// Objectness exactly at 0.5 or a best category score exactly at 0.1 must be
// rejected while values just above must be accepted.
func TestDecodeThresholdBoundary(t *testing.T) {
	cfg := DefaultDecoderConfig()
	box := [4]float32{0.1, 0.1, 0.2, 0.2}

	tests := []struct {
		name       string
		objectness float32
		score      float32
		accepted   bool
	}{
		{"objectness at threshold", 0.5, 0.9, false},
		{"objectness just above", math32.Nextafter(0.5, 1), 0.9, true},
		{"category at threshold", 0.9, 0.1, false},
		{"category just above", 0.9, math32.Nextafter(0.1, 1), true},
		{"both low", 0.2, 0.05, false},
		{"nan objectness", math32.NaN(), 0.9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newOutput(cfg).row(0, box, tt.objectness, tt.score)
			regions, err := Decode(out.data, cfg)
			require.NoError(t, err)
			if tt.accepted {
				require.Len(t, regions, 1, "box should be accepted")
				assert.Equal(t, tt.objectness, regions[0].Confidence)
			} else {
				assert.Empty(t, regions, "box should be rejected")
			}
		})
	}
}

// TestDecodeCategoryTieBreak validates that the first maximum wins.
func TestDecodeCategoryTieBreak(t *testing.T) {
	cfg := DefaultDecoderConfig()
	d, err := NewDecoder(cfg, nil)
	require.NoError(t, err)

	out := newOutput(cfg).
		row(0, [4]float32{0, 0, 1, 1}, 0.9, 0.3, 0.3, 0.9).
		row(1, [4]float32{0, 0, 1, 1}, 0.9, 0.2, 0.7, 0.7, 0.1)

	dets, err := d.DecodeDetections(out.data)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, 2, dets[0].Class, "strict maximum should win")
	assert.Equal(t, "BUTTOCKS_EXPOSED", dets[0].Label)
	assert.InDelta(t, 0.9, dets[0].ClassScore, 1e-6)

	assert.Equal(t, 1, dets[1].Class, "first of two equal maxima should win")
	assert.Equal(t, "FACE_FEMALE", dets[1].Label)
}

// TestDecodeOnlyReadsConfiguredCategories ensures attributes past the
// category slice never influence the argmax.
func TestDecodeOnlyReadsConfiguredCategories(t *testing.T) {
	cfg := DefaultDecoderConfig()
	out := newOutput(cfg)
	out.data[4] = 0.9
	out.data[5] = 0.05
	out.data[AttributesPerBox-1] = 0.08 // last of the 17 scores
	out.data[AttributesPerBox] = 0.99   // next row's x1

	regions, err := Decode(out.data, cfg)
	require.NoError(t, err)
	assert.Empty(t, regions)
}

// TestDecodeEncounterOrder validates that regions keep row order and are not sorted.
func TestDecodeEncounterOrder(t *testing.T) {
	cfg := DefaultDecoderConfig()
	out := newOutput(cfg).
		row(10, [4]float32{0.1, 0.1, 0.2, 0.2}, 0.6, 0.5).
		row(500, [4]float32{0.3, 0.3, 0.4, 0.4}, 0.99, 0.5).
		row(NumBoxes-1, [4]float32{0.5, 0.5, 0.6, 0.6}, 0.7, 0.5)

	regions, err := Decode(out.data, cfg)
	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, float32(0.6), regions[0].Confidence)
	assert.Equal(t, float32(0.99), regions[1].Confidence)
	assert.Equal(t, float32(0.7), regions[2].Confidence)
}

// TestDecodeNoSuppression validates that overlapping boxes are all kept.
func TestDecodeNoSuppression(t *testing.T) {
	cfg := DefaultDecoderConfig()
	out := newOutput(cfg).
		row(0, [4]float32{0.1, 0.1, 0.5, 0.5}, 0.9, 0.5).
		row(1, [4]float32{0.1, 0.1, 0.5, 0.5}, 0.8, 0.5)

	regions, err := Decode(out.data, cfg)
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

// TestDecodeInvertedCoordinates validates the swap at the decoder boundary.
func TestDecodeInvertedCoordinates(t *testing.T) {
	cfg := DefaultDecoderConfig()
	out := newOutput(cfg).row(0, [4]float32{0.8, 0.7, 0.2, 0.1}, 0.9, 0.5)

	regions, err := Decode(out.data, cfg)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, postprocess.Region{X1: 0.2, Y1: 0.1, X2: 0.8, Y2: 0.7, Confidence: 0.9}, regions[0])
}

// TestDecodeMalformedOutput validates the short-tensor failure mode.
func TestDecodeMalformedOutput(t *testing.T) {
	cfg := DefaultDecoderConfig()

	for _, n := range []int{0, 1, cfg.OutputSize() - 1} {
		_, err := Decode(make([]float32, n), cfg)
		assert.True(t, errors.Is(err, postprocess.ErrMalformedOutput), "length %d should be malformed", n)
	}

	regions, err := Decode(make([]float32, cfg.OutputSize()+7), cfg)
	require.NoError(t, err, "trailing values are ignored")
	assert.Empty(t, regions)
}

// TestDecoderConfigValidate validates layout consistency checks.
func TestDecoderConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultDecoderConfig().Validate())

	wide := DefaultDecoderConfig()
	wide.NumCategories = len(Labels)
	wide.AttributesPerBox = 5 + len(Labels)
	assert.NoError(t, wide.Validate(), "18 categories in 23 attributes is valid")

	for _, mutate := range []func(*DecoderConfig){
		func(c *DecoderConfig) { c.NumBoxes = 0 },
		func(c *DecoderConfig) { c.NumCategories = 0 },
		func(c *DecoderConfig) { c.NumCategories = 18 },
	} {
		cfg := DefaultDecoderConfig()
		mutate(&cfg)
		err := cfg.Validate()
		assert.True(t, errors.Is(err, postprocess.ErrInvalidConfig), "config %+v should be invalid", cfg)

		_, err = Decode(make([]float32, NumBoxes*AttributesPerBox), cfg)
		assert.True(t, errors.Is(err, postprocess.ErrInvalidConfig))
	}
}

// TestDecodeLogging validates the per-detection and summary diagnostics.
func TestDecodeLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	cfg := DefaultDecoderConfig()
	d, err := NewDecoder(cfg, logger)
	require.NoError(t, err)

	_, err = d.Decode(newOutput(cfg).data)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no explicit content detected")

	buf.Reset()
	_, err = d.Decode(newOutput(cfg).row(3, [4]float32{0, 0, 1, 1}, 0.9, 0, 0, 0, 0, 0.8).data)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "FEMALE_GENITALIA_EXPOSED")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"), "one debug line and one summary")
}

// TestLabel validates index lookups.
func TestLabel(t *testing.T) {
	assert.Len(t, Labels, 18)
	assert.Equal(t, "FEMALE_GENITALIA_COVERED", Label(0))
	assert.Equal(t, "BUTTOCKS_COVERED", Label(17))
	assert.Equal(t, "", Label(18))
	assert.Equal(t, "", Label(-1))
}

// TestNewModel validates the model wrapper and argument overrides.
func TestNewModel(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Path: "nudenet.onnx"})
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, model.ModelNameNudeNet, opts.Name)
	assert.Equal(t, model.ModelFamilyNudeNet, opts.Family)
	assert.Equal(t, []int64{1, 3, 256, 256}, opts.InputShape)
	assert.Equal(t, []int64{1, 1344, 22}, opts.OutputShape)
	assert.Equal(t, DefaultDecoderConfig(), m.Decoder().Config())

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	pre, err := m.PreProcess(img)
	require.NoError(t, err)
	assert.Equal(t, opts.InputShape, pre.Shape)

	dets, err := m.PostProcess(newOutput(DefaultDecoderConfig()).row(0, [4]float32{0, 0, 1, 1}, 0.9, 0.9).data)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	custom, err := NewModel(model.NewModelArgs{ConfidenceThreshold: 0.8, NumBoxes: 4})
	require.NoError(t, err)
	assert.Equal(t, float32(0.8), custom.Decoder().Config().ConfidenceThreshold)
	assert.Equal(t, []int64{1, 4, 22}, custom.Options().OutputShape)

	_, err = NewModel(model.NewModelArgs{NumCategories: 40})
	assert.True(t, errors.Is(err, postprocess.ErrInvalidConfig))
}
