// Package preprocess - converts decoded images into model input tensors.
package preprocess

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-censor/images"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ModelConfig defines preprocessing configuration for a specific model.
type ModelConfig struct {
	// Name of the model for debugging purposes.
	Name string
	// InputWidth is the expected width of the model input.
	InputWidth int
	// InputHeight is the expected height of the model input.
	InputHeight int
	// InputChannels is the number of channels (1 for grayscale, 3 for RGB/BGR).
	InputChannels int
	// NormalizationType defines how to normalize pixel values.
	NormalizationType NormalizationType
	// MeanValues for standardization (if NormalizationType is Standardize).
	MeanValues []float32
	// StdValues for standardization (if NormalizationType is Standardize).
	StdValues []float32
	// ChannelOrder defines the channel ordering (CHW or HWC).
	ChannelOrder ChannelOrder
	// ColorMode defines the color space (RGB, BGR, Grayscale).
	ColorMode ColorMode
	// KeepAspectRatio if true, maintains aspect ratio with letterboxing.
	KeepAspectRatio bool
	// LetterboxColor is the color used for letterbox padding (default black).
	LetterboxColor color.Color
	// Interpolation is the resampling kernel. The zero value is nearest neighbor.
	Interpolation resize.InterpolationFunction
}

// Validate checks that the configuration describes a usable input tensor.
func (c *ModelConfig) Validate() error {
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return errors.Errorf("invalid input size %dx%d", c.InputWidth, c.InputHeight)
	}
	switch c.InputChannels {
	case 1:
		if c.ColorMode != ColorModeGrayscale {
			return errors.New("single channel input requires grayscale color mode")
		}
	case 3:
		if c.ColorMode == ColorModeGrayscale {
			return errors.New("grayscale color mode requires a single input channel")
		}
	default:
		return errors.Errorf("unsupported channel count %d", c.InputChannels)
	}
	if c.NormalizationType == NormalizeStandardize {
		if len(c.MeanValues) != c.InputChannels || len(c.StdValues) != c.InputChannels {
			return errors.New("standardization needs one mean and std per channel")
		}
		for _, s := range c.StdValues {
			if s == 0 {
				return errors.New("standardization std must be non-zero")
			}
		}
	}
	return nil
}

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeNone keeps pixel values as 0-255.
	NormalizeNone NormalizationType = iota
	// NormalizeZeroToOne scales pixel values to [0, 1].
	NormalizeZeroToOne
	// NormalizeMinusOneToOne scales pixel values to [-1, 1].
	NormalizeMinusOneToOne
	// NormalizeStandardize applies mean and std normalization.
	NormalizeStandardize
)

// ChannelOrder defines the ordering of image channels.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering (common for ONNX).
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering.
	ChannelOrderHWC
)

// ColorMode defines the color space of the image.
type ColorMode int

const (
	// ColorModeRGB is standard RGB color mode.
	ColorModeRGB ColorMode = iota
	// ColorModeBGR writes the blue plane first.
	ColorModeBGR
	// ColorModeGrayscale is single channel grayscale.
	ColorModeGrayscale
)

// Result contains the preprocessed image data and metadata.
type Result struct {
	// Data is the preprocessed float32 tensor data.
	Data []float32
	// Shape is [1, C, H, W] or [1, H, W, C].
	Shape []int64
	// OriginalWidth is the original image width before preprocessing.
	OriginalWidth int
	// OriginalHeight is the original image height before preprocessing.
	OriginalHeight int
	// ScaleX is the horizontal scaling factor applied.
	ScaleX float64
	// ScaleY is the vertical scaling factor applied.
	ScaleY float64
	// PadLeft is the left padding applied for letterboxing.
	PadLeft int
	// PadTop is the top padding applied for letterboxing.
	PadTop int
	// Letterboxed reports whether padding was applied.
	Letterboxed bool

	inputWidth  int
	inputHeight int
}

// Tensor returns the data as an inference tensor.
func (r *Result) Tensor() postprocess.Tensor {
	return postprocess.Tensor{Data: r.Data, Shape: r.Shape}
}

// ToOriginal maps a region from model-input fractions to original-image fractions.
//
// Stretched inputs share the same fractional space as the original image, so
// the region is returned unchanged.
func (r *Result) ToOriginal(region postprocess.Region) postprocess.Region {
	if !r.Letterboxed || r.OriginalWidth == 0 || r.OriginalHeight == 0 {
		return region
	}
	mapX := func(v float32) float32 {
		px := float64(v)*float64(r.inputWidth) - float64(r.PadLeft)
		return float32(px / r.ScaleX / float64(r.OriginalWidth))
	}
	mapY := func(v float32) float32 {
		py := float64(v)*float64(r.inputHeight) - float64(r.PadTop)
		return float32(py / r.ScaleY / float64(r.OriginalHeight))
	}
	region.X1, region.X2 = mapX(region.X1), mapX(region.X2)
	region.Y1, region.Y2 = mapY(region.Y1), mapY(region.Y2)
	return region
}

// Preprocessor handles image preprocessing for ONNX models.
type Preprocessor struct {
	config *ModelConfig
	log    logrus.FieldLogger
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
// - config: The model-specific preprocessing configuration.
//
// Returns:
// - A configured Preprocessor instance.
//
// @example
//
//	config := &ModelConfig{
//	    Name:              "nudenet",
//	    InputWidth:        256,
//	    InputHeight:       256,
//	    InputChannels:     3,
//	    NormalizationType: NormalizeZeroToOne,
//	    ChannelOrder:      ChannelOrderCHW,
//	    ColorMode:         ColorModeBGR,
//	}
//
// preprocessor := NewPreprocessor(config)
func NewPreprocessor(config *ModelConfig) *Preprocessor {
	if config.LetterboxColor == nil {
		config.LetterboxColor = color.Black
	}

	return &Preprocessor{
		config: config,
		log:    discard(),
	}
}

// SetLogger routes debug output to l. A nil logger disables it.
func (p *Preprocessor) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = discard()
	}
	p.log = l
}

// Config returns the configuration the preprocessor was built with.
func (p *Preprocessor) Config() ModelConfig {
	return *p.config
}

// Preprocess performs all necessary preprocessing steps on the input image.
//
// Arguments:
// - img: The decoded input image.
//
// Returns:
// - Result containing the preprocessed tensor and metadata.
// - error wrapping images.ErrInvalidImage for a nil or empty image.
//
// @example
//
//	result, err := preprocessor.Preprocess(img)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// tensor := result.Data
func (p *Preprocessor) Preprocess(img image.Image) (*Result, error) {
	if err := images.Validate(img); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}
	if err := p.config.Validate(); err != nil {
		return nil, errors.Wrap(err, "preprocess config")
	}

	originalWidth := img.Bounds().Dx()
	originalHeight := img.Bounds().Dy()

	log := p.log.WithField("model", p.config.Name)
	log.Debugf("input image %dx%d", originalWidth, originalHeight)

	resized, scaleX, scaleY, padLeft, padTop := p.resizeImage(img)

	log.Debugf("resized to %dx%d, scale (%.4f, %.4f), padding (%d, %d)",
		p.config.InputWidth, p.config.InputHeight, scaleX, scaleY, padLeft, padTop)

	tensor := p.imageToTensor(resized)
	p.normalize(tensor)

	var shape []int64
	if p.config.ChannelOrder == ChannelOrderCHW {
		shape = []int64{1, int64(p.config.InputChannels), int64(p.config.InputHeight), int64(p.config.InputWidth)}
	} else {
		shape = []int64{1, int64(p.config.InputHeight), int64(p.config.InputWidth), int64(p.config.InputChannels)}
	}

	log.Debugf("output tensor shape %v", shape)

	return &Result{
		Data:           tensor,
		Shape:          shape,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		ScaleX:         scaleX,
		ScaleY:         scaleY,
		PadLeft:        padLeft,
		PadTop:         padTop,
		Letterboxed:    p.config.KeepAspectRatio,
		inputWidth:     p.config.InputWidth,
		inputHeight:    p.config.InputHeight,
	}, nil
}

// resizeImage resizes the image to the model's input dimensions and
// returns it as unpremultiplied 8-bit pixels.
//
// Returns:
// - The resized image.
// - scaleX: Horizontal scaling factor.
// - scaleY: Vertical scaling factor.
// - padLeft: Left padding for letterboxing.
// - padTop: Top padding for letterboxing.
func (p *Preprocessor) resizeImage(img image.Image) (*image.NRGBA, float64, float64, int, int) {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, p.config.InputWidth, p.config.InputHeight))

	scaleX := float64(p.config.InputWidth) / float64(srcWidth)
	scaleY := float64(p.config.InputHeight) / float64(srcHeight)

	if !p.config.KeepAspectRatio {
		resized := p.resample(img, p.config.InputWidth, p.config.InputHeight)
		draw.Draw(dst, dst.Bounds(), resized, resized.Bounds().Min, draw.Src)
		return dst, scaleX, scaleY, 0, 0
	}

	scale := math.Min(scaleX, scaleY)
	newWidth := max(1, int(float64(srcWidth)*scale))
	newHeight := max(1, int(float64(srcHeight)*scale))
	resized := p.resample(img, newWidth, newHeight)

	padLeft := (p.config.InputWidth - newWidth) / 2
	padTop := (p.config.InputHeight - newHeight) / 2

	draw.Draw(dst, dst.Bounds(), &image.Uniform{p.config.LetterboxColor}, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(padLeft, padTop, padLeft+newWidth, padTop+newHeight),
		resized, resized.Bounds().Min, draw.Src)

	return dst, scale, scale, padLeft, padTop
}

func (p *Preprocessor) resample(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return resize.Resize(uint(width), uint(height), img, p.config.Interpolation)
}

// imageToTensor converts an image to a float32 tensor in the configured layout.
//
// Arguments:
// - img: The resized image.
//
// Returns:
// - The float32 tensor data, channel values in 0-255.
func (p *Preprocessor) imageToTensor(img *image.NRGBA) []float32 {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	plane := width * height

	tensor := make([]float32, plane*p.config.InputChannels)

	idx := 0
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			r8, g8, b8 := row[x*4], row[x*4+1], row[x*4+2]

			if p.config.InputChannels == 1 {
				gray := 0.299*float32(r8) + 0.587*float32(g8) + 0.114*float32(b8)
				tensor[idx] = gray
				idx++
				continue
			}

			var ch0, ch1, ch2 float32
			if p.config.ColorMode == ColorModeBGR {
				ch0, ch1, ch2 = float32(b8), float32(g8), float32(r8)
			} else {
				ch0, ch1, ch2 = float32(r8), float32(g8), float32(b8)
			}

			if p.config.ChannelOrder == ChannelOrderCHW {
				i := y*width + x
				tensor[i] = ch0
				tensor[plane+i] = ch1
				tensor[2*plane+i] = ch2
			} else {
				tensor[idx] = ch0
				tensor[idx+1] = ch1
				tensor[idx+2] = ch2
				idx += 3
			}
		}
	}

	return tensor
}

// normalize applies normalization to the tensor in place.
func (p *Preprocessor) normalize(tensor []float32) {
	switch p.config.NormalizationType {
	case NormalizeZeroToOne:
		for i := range tensor {
			tensor[i] /= 255.0
		}
	case NormalizeMinusOneToOne:
		for i := range tensor {
			tensor[i] = (tensor[i] / 127.5) - 1.0
		}
	case NormalizeStandardize:
		pixelsPerChannel := len(tensor) / p.config.InputChannels
		for c := 0; c < p.config.InputChannels; c++ {
			mean := p.config.MeanValues[c]
			std := p.config.StdValues[c]

			if p.config.ChannelOrder == ChannelOrderCHW {
				offset := c * pixelsPerChannel
				for i := 0; i < pixelsPerChannel; i++ {
					tensor[offset+i] = (tensor[offset+i] - mean) / std
				}
			} else {
				for i := c; i < len(tensor); i += p.config.InputChannels {
					tensor[i] = (tensor[i] - mean) / std
				}
			}
		}
	}
}

// GetNudeNetConfig returns the configuration of the NudeNet body-part detector:
// a stretched square input, BGR planes in CHW order, values in [0, 1].
//
// Arguments:
// - inputSize: The input size (256 for the reference export).
//
// Returns:
// - A configured ModelConfig.
//
// @example
// config := GetNudeNetConfig(256)
// preprocessor := NewPreprocessor(config)
func GetNudeNetConfig(inputSize int) *ModelConfig {
	return &ModelConfig{
		Name:              "nudenet",
		InputWidth:        inputSize,
		InputHeight:       inputSize,
		InputChannels:     3,
		NormalizationType: NormalizeZeroToOne,
		ChannelOrder:      ChannelOrderCHW,
		ColorMode:         ColorModeBGR,
		KeepAspectRatio:   false,
		LetterboxColor:    color.Black,
		Interpolation:     resize.Bilinear,
	}
}

// BatchPreprocess processes multiple images in parallel.
//
// Arguments:
// - imgs: Slice of images to preprocess.
// - maxConcurrency: Maximum number of images to process concurrently.
//
// Returns:
// - Slice of preprocessing results, aligned with imgs.
// - error for the first image that fails.
//
// @example
// results, err := preprocessor.BatchPreprocess([]image.Image{a, b, c}, 4)
func (p *Preprocessor) BatchPreprocess(imgs []image.Image, maxConcurrency int) ([]*Result, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make([]*Result, len(imgs))

	var g errgroup.Group
	g.SetLimit(maxConcurrency)

	for i, img := range imgs {
		i, img := i, img // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			result, err := p.Preprocess(img)
			if err != nil {
				return errors.Wrapf(err, "failed to preprocess image %d", i)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
