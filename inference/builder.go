package inference

import (
	"errors"

	"github.com/nvr-ai/go-censor/inference/providers"
	"github.com/nvr-ai/go-censor/models"
	"github.com/nvr-ai/go-censor/models/model"
)

var _ Engine = (*providers.Session)(nil)

// SessionFactory opens an engine for a model. It defaults to providers.NewSession.
type SessionFactory func(config providers.Config, args providers.NewSessionArgs) (Engine, error)

// EngineBuilder assembles a model and the engine that runs it with a fluent API.
type EngineBuilder struct {
	config  *providers.Config
	model   model.Model
	factory SessionFactory
	err     error
}

// NewEngineBuilder creates a new engine builder.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		factory: func(config providers.Config, args providers.NewSessionArgs) (Engine, error) {
			s, err := providers.NewSession(config, args)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

// WithProvider sets the provider configuration for the engine.
//
// Arguments:
//   - config: The provider configuration.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithProvider(config providers.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if err := config.Validate(); err != nil {
		b.err = err
		return b
	}
	b.config = &config
	return b
}

// WithModel sets the model for the engine.
//
// Arguments:
//   - args: The model arguments.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func (b *EngineBuilder) WithModel(args model.NewModelArgs) *EngineBuilder {
	if b.HasError() {
		return b
	}
	m, err := models.NewModel(args)
	if err != nil {
		b.err = err
		return b
	}
	b.model = m
	return b
}

// WithSessionFactory replaces the function that opens the engine.
func (b *EngineBuilder) WithSessionFactory(factory SessionFactory) *EngineBuilder {
	b.factory = factory
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build opens the engine for the configured model.
//
// Returns:
//   - model.Model: The model.
//   - Engine: The engine. The caller must Close it.
//   - error: The error if any.
func (b *EngineBuilder) Build() (model.Model, Engine, error) {
	if b.HasError() {
		return nil, nil, b.err
	}
	if b.config == nil {
		return nil, nil, errors.New("provider not configured")
	}
	if b.model == nil {
		return nil, nil, errors.New("model not configured")
	}

	opts := b.model.Options()
	args := providers.NewSessionArgs{
		ModelPath:   opts.Path,
		InputShape:  opts.InputShape,
		OutputShape: opts.OutputShape,
	}
	if len(opts.Inputs) > 0 {
		args.InputName = opts.Inputs[0]
	}
	if len(opts.Outputs) > 0 {
		args.OutputName = opts.Outputs[0]
	}

	engine, err := b.factory(*b.config, args)
	if err != nil {
		return nil, nil, err
	}
	return b.model, engine, nil
}

// MustBuild builds the engine and panics if there is an error.
func (b *EngineBuilder) MustBuild() (model.Model, Engine) {
	m, e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m, e
}
