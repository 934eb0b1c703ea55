// Package model - Definitions shared by every detection model.
package model

import (
	"image"

	"github.com/nvr-ai/go-censor/models/model/preprocess"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/sirupsen/logrus"
)

// Family is the family of models, identifying the label set they emit.
type Family string

const (
	// ModelFamilyNudeNet is the 18-category body-part label set.
	ModelFamilyNudeNet Family = "nudenet"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameNudeNet is the name of the 256x256 NudeNet detector.
	ModelNameNudeNet Name = "nudenet"
)

// BaseModel describes the static contract of a model.
type BaseModel struct {
	Name   Name
	Family Family
	Path   string
	// InputShape is the shape of the single input tensor, batch first.
	InputShape []int64
	// OutputShape is the shape of the single output tensor.
	OutputShape []int64
	Inputs      []string
	Outputs     []string
}

// Model turns images into input tensors and output tensors into detections.
type Model interface {
	Options() BaseModel
	PreProcess(img image.Image) (*preprocess.Result, error)
	PostProcess(output []float32) ([]postprocess.Detection, error)
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name    Name     `json:"name" yaml:"name"`
	Path    string   `json:"path" yaml:"path"`
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// InputSize overrides the square input resolution. Zero keeps the model default.
	InputSize int `json:"input_size" yaml:"input_size"`
	// Layout and threshold overrides. Zero values keep the model defaults.
	NumBoxes            int     `json:"num_boxes" yaml:"num_boxes"`
	AttributesPerBox    int     `json:"attributes_per_box" yaml:"attributes_per_box"`
	NumCategories       int     `json:"num_categories" yaml:"num_categories"`
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	CategoryThreshold   float32 `json:"category_threshold" yaml:"category_threshold"`
	// Logger receives model diagnostics. Nil discards them.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
}
