// Package models - registry for models and their label sets.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/nudenet"
)

// NewModel creates a new detection model instance based on the specified model name.
//
// This factory function is the single entry point for model creation,
// routing requests to the model-specific constructor. An empty name selects
// the NudeNet detector.
//
// Arguments:
//   - args: Configuration parameters specifying the model type, location and overrides.
//
// Returns:
//   - model.Model: A fully configured model instance implementing the Model interface.
//   - error: An error if the model name is unsupported or its configuration is invalid.
//
// Example:
//
//	detectionModel, err := NewModel(model.NewModelArgs{
//	    Name: model.ModelNameNudeNet,
//	    Path: "/models/nudenet_256.onnx",
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create detection model: %v", err)
//	}
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNameNudeNet, "":
		m, err := nudenet.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model name: %s", args.Name)
	}
}
