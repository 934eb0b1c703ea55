package nudenet

import (
	"io"

	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DecoderConfig describes the output layout and acceptance thresholds.
type DecoderConfig struct {
	NumBoxes            int     `json:"num_boxes" yaml:"num_boxes"`
	AttributesPerBox    int     `json:"attributes_per_box" yaml:"attributes_per_box"`
	NumCategories       int     `json:"num_categories" yaml:"num_categories"`
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	CategoryThreshold   float32 `json:"category_threshold" yaml:"category_threshold"`
}

// DefaultDecoderConfig returns the reference layout and thresholds.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		NumBoxes:            NumBoxes,
		AttributesPerBox:    AttributesPerBox,
		NumCategories:       NumCategories,
		ConfidenceThreshold: ConfidenceThreshold,
		CategoryThreshold:   CategoryThreshold,
	}
}

// Validate checks that the layout is internally consistent.
//
// Returns:
//   - error: postprocess.ErrInvalidConfig (wrapped) describing the problem, or nil.
func (c DecoderConfig) Validate() error {
	switch {
	case c.NumBoxes <= 0:
		return errors.Wrapf(postprocess.ErrInvalidConfig, "num boxes must be positive, got %d", c.NumBoxes)
	case c.NumCategories <= 0:
		return errors.Wrapf(postprocess.ErrInvalidConfig, "num categories must be positive, got %d", c.NumCategories)
	case 5+c.NumCategories > c.AttributesPerBox:
		return errors.Wrapf(postprocess.ErrInvalidConfig,
			"%d categories do not fit in %d attributes per box", c.NumCategories, c.AttributesPerBox)
	}
	return nil
}

// OutputSize is the minimum number of floats a model output must hold.
func (c DecoderConfig) OutputSize() int {
	return c.NumBoxes * c.AttributesPerBox
}

// Decoder turns raw output tensors into detections.
type Decoder struct {
	config DecoderConfig
	log    logrus.FieldLogger
}

// NewDecoder validates config and returns a decoder logging to log.
// A nil logger discards diagnostics.
func NewDecoder(config DecoderConfig, log logrus.FieldLogger) (*Decoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Decoder{config: config, log: log}, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() DecoderConfig {
	return d.config
}

// DecodeDetections scans every candidate row in order and keeps those whose
// objectness and best category score both strictly exceed their thresholds.
//
// Accepted detections are returned in encounter order with their corners
// normalized. The winning category is the first maximum of the score slice.
// No suppression or sorting is applied.
//
// Arguments:
//   - output: The flat model output, at least NumBoxes*AttributesPerBox long.
//
// Returns:
//   - []postprocess.Detection: Accepted detections, possibly empty.
//   - error: postprocess.ErrMalformedOutput (wrapped) if output is too short.
func (d *Decoder) DecodeDetections(output []float32) ([]postprocess.Detection, error) {
	cfg := d.config
	if len(output) < cfg.OutputSize() {
		return nil, errors.Wrapf(postprocess.ErrMalformedOutput,
			"output has %d values, need %d (%d boxes x %d attributes)",
			len(output), cfg.OutputSize(), cfg.NumBoxes, cfg.AttributesPerBox)
	}

	detections := make([]postprocess.Detection, 0)
	for i := 0; i < cfg.NumBoxes; i++ {
		row := output[i*cfg.AttributesPerBox : (i+1)*cfg.AttributesPerBox]
		objectness := row[4]

		class, score := argmax(row[5 : 5+cfg.NumCategories])
		if !(objectness > cfg.ConfidenceThreshold && score > cfg.CategoryThreshold) {
			continue
		}

		det := postprocess.Detection{
			Region: postprocess.Region{
				X1:         row[0],
				Y1:         row[1],
				X2:         row[2],
				Y2:         row[3],
				Confidence: objectness,
			}.Normalize(),
			Class:      class,
			Label:      Label(class),
			ClassScore: score,
		}
		d.log.WithFields(logrus.Fields{
			"box":        i,
			"label":      det.Label,
			"confidence": objectness,
		}).Debugf("detected %s (class score %.2f)", det.Label, score)

		detections = append(detections, det)
	}

	if len(detections) == 0 {
		d.log.Info("no explicit content detected")
	} else {
		d.log.WithField("regions", len(detections)).Info("detected sensitive regions")
	}

	return detections, nil
}

// Decode returns the accepted regions of output.
func (d *Decoder) Decode(output []float32) ([]postprocess.Region, error) {
	detections, err := d.DecodeDetections(output)
	if err != nil {
		return nil, err
	}
	return postprocess.Regions(detections), nil
}

// Decode is a convenience wrapper building a silent decoder for cfg.
//
// @example
// regions, err := nudenet.Decode(output, nudenet.DefaultDecoderConfig())
func Decode(output []float32, cfg DecoderConfig) ([]postprocess.Region, error) {
	d, err := NewDecoder(cfg, nil)
	if err != nil {
		return nil, err
	}
	return d.Decode(output)
}

// argmax returns the index and value of the first maximum of scores.
func argmax(scores []float32) (int, float32) {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}
