package nudenet

import (
	"image"

	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/model/preprocess"
	"github.com/nvr-ai/go-censor/models/postprocess"
)

// NudeNet is the instance of the NudeNet detector.
type NudeNet struct {
	options      model.BaseModel
	preprocessor *preprocess.Preprocessor
	decoder      *Decoder
}

// NewModel creates a new model, filling every unset argument with the
// reference value.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
//   - error: postprocess.ErrInvalidConfig (wrapped) for an inconsistent layout.
func NewModel(args model.NewModelArgs) (*NudeNet, error) {
	size := args.InputSize
	if size <= 0 {
		size = InputSize
	}

	cfg := DefaultDecoderConfig()
	if args.NumBoxes > 0 {
		cfg.NumBoxes = args.NumBoxes
	}
	if args.AttributesPerBox > 0 {
		cfg.AttributesPerBox = args.AttributesPerBox
	}
	if args.NumCategories > 0 {
		cfg.NumCategories = args.NumCategories
	}
	if args.ConfidenceThreshold > 0 {
		cfg.ConfidenceThreshold = args.ConfidenceThreshold
	}
	if args.CategoryThreshold > 0 {
		cfg.CategoryThreshold = args.CategoryThreshold
	}

	decoder, err := NewDecoder(cfg, args.Logger)
	if err != nil {
		return nil, err
	}

	pre := preprocess.NewPreprocessor(preprocess.GetNudeNetConfig(size))
	pre.SetLogger(args.Logger)

	return &NudeNet{
		options: model.BaseModel{
			Name:        model.ModelNameNudeNet,
			Family:      model.ModelFamilyNudeNet,
			Path:        args.Path,
			InputShape:  []int64{1, 3, int64(size), int64(size)},
			OutputShape: []int64{1, int64(cfg.NumBoxes), int64(cfg.AttributesPerBox)},
			Inputs:      args.Inputs,
			Outputs:     args.Outputs,
		},
		preprocessor: pre,
		decoder:      decoder,
	}, nil
}

// Options returns the static description of the model.
func (m *NudeNet) Options() model.BaseModel {
	return m.options
}

// Decoder returns the output decoder.
func (m *NudeNet) Decoder() *Decoder {
	return m.decoder
}

// PreProcess converts img into the [1, 3, 256, 256] BGR input tensor.
func (m *NudeNet) PreProcess(img image.Image) (*preprocess.Result, error) {
	return m.preprocessor.Preprocess(img)
}

// PostProcess decodes a raw output tensor.
func (m *NudeNet) PostProcess(output []float32) ([]postprocess.Detection, error) {
	return m.decoder.DecodeDetections(output)
}
