package censor

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/nvr-ai/go-censor/images"
	"github.com/nvr-ai/go-censor/inference"
	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrInference wraps failures reported by the inference engine.
var ErrInference = errors.New("inference failed")

// Options configures a Pipeline.
type Options struct {
	// Pixelate controls the mosaic fill.
	Pixelate PixelateOptions
	// NMS enables greedy suppression of overlapping detections when non-nil.
	NMS *postprocess.NMSConfig
	// Classes limits censoring to these category indices. Empty censors every class.
	Classes []int
	// Logger receives per-image summaries. Nil discards them.
	Logger logrus.FieldLogger
}

// DefaultOptions returns average-mode 15 pixel blocks, no suppression and no class filter.
func DefaultOptions() Options {
	return Options{Pixelate: DefaultPixelateOptions()}
}

// Output is the result of censoring one image.
type Output struct {
	// Image is the censored copy, or an unmodified copy when nothing was found.
	Image *image.RGBA
	// Detections are the accepted detections in image-fraction coordinates.
	Detections []postprocess.Detection
	// Regions are the regions that were pixelated, in application order.
	Regions []postprocess.Region
	// Censored reports whether at least one region was pixelated.
	Censored bool
	// Checksum is the md5 of the output pixels.
	Checksum string
}

// Pipeline runs preprocess, inference, decode and pixelation for one image at a time.
// It is safe for concurrent use when its engine is.
type Pipeline struct {
	model   model.Model
	engine  inference.Engine
	opts    Options
	classes map[int]struct{}
	log     logrus.FieldLogger
}

// New builds a pipeline around a model and the engine that runs it.
//
// Arguments:
//   - m: The model providing preprocessing and decoding.
//   - engine: The inference engine. The pipeline takes ownership and closes it in Close.
//   - opts: Pipeline options.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: For a nil collaborator or invalid options.
func New(m model.Model, engine inference.Engine, opts Options) (*Pipeline, error) {
	if m == nil {
		return nil, errors.New("censor: model is required")
	}
	if engine == nil {
		return nil, errors.New("censor: engine is required")
	}
	if err := opts.Pixelate.Validate(); err != nil {
		return nil, err
	}
	if opts.NMS != nil && (opts.NMS.IoUThreshold < 0 || opts.NMS.IoUThreshold > 1) {
		return nil, errors.Wrapf(postprocess.ErrInvalidConfig, "iou threshold %v outside [0, 1]", opts.NMS.IoUThreshold)
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	var classes map[int]struct{}
	if len(opts.Classes) > 0 {
		classes = make(map[int]struct{}, len(opts.Classes))
		for _, c := range opts.Classes {
			classes[c] = struct{}{}
		}
	}

	return &Pipeline{
		model:   m,
		engine:  engine,
		opts:    opts,
		classes: classes,
		log:     log.WithField("model", m.Options().Name),
	}, nil
}

// Detect returns the detections for img without modifying any pixels.
//
// Detections are mapped back to original-image fractions, filtered by class
// and, when configured, suppressed by NMS.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	pre, err := p.model.PreProcess(img)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := p.engine.Run(ctx, pre.Tensor())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrapf(ErrInference, "%v", err)
	}

	detections, err := p.model.PostProcess(out.Data)
	if err != nil {
		return nil, err
	}

	kept := detections[:0]
	for _, d := range detections {
		if p.classes != nil {
			if _, ok := p.classes[d.Class]; !ok {
				continue
			}
		}
		d.Region = pre.ToOriginal(d.Region)
		kept = append(kept, d)
	}

	if p.opts.NMS != nil {
		kept = postprocess.ApplyGreedyNMS(kept, p.opts.NMS)
	}
	return kept, nil
}

// Process detects and pixelates the sensitive regions of img.
//
// Arguments:
//   - ctx: Checked before inference.
//   - img: The source image. It is never modified.
//
// Returns:
//   - *Output: The censored copy and what was found.
//   - error: ErrInvalidImage, ErrInference, ErrMalformedOutput or ErrInvalidRegion (wrapped).
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Output, error) {
	start := time.Now()

	detections, err := p.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	regions := postprocess.Regions(detections)
	censored, err := Pixelate(img, regions, p.opts.Pixelate)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Image:      censored,
		Detections: detections,
		Regions:    regions,
		Censored:   len(regions) > 0,
		Checksum:   images.ComputeChecksum(censored),
	}

	p.log.WithFields(logrus.Fields{
		"regions": len(regions),
		"width":   censored.Rect.Dx(),
		"height":  censored.Rect.Dy(),
		"elapsed": time.Since(start),
	}).Info("processed image")

	return output, nil
}

// ProcessAll processes imgs with up to workers images in flight and returns
// outputs aligned with imgs. The first failure cancels the rest.
func (p *Pipeline) ProcessAll(ctx context.Context, imgs []image.Image, workers int) ([]*Output, error) {
	if workers <= 0 {
		workers = 1
	}

	outputs := make([]*Output, len(imgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, img := range imgs {
		i, img := i, img // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			out, err := p.Process(ctx, img)
			if err != nil {
				return errors.Wrapf(err, "image %d", i)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// Model returns the model the pipeline runs.
func (p *Pipeline) Model() model.Model {
	return p.model
}

// Close closes the engine.
func (p *Pipeline) Close() error {
	return p.engine.Close()
}
