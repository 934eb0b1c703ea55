// Package inference - Inference engine interface and implementations.
package inference

import (
	"context"
	"sync"

	"github.com/nvr-ai/go-censor/models/postprocess"
)

// Engine runs a model on one input tensor and returns its output tensor.
type Engine interface {
	Run(ctx context.Context, input postprocess.Tensor) (postprocess.Tensor, error)
	Close() error
}

// EngineFunc adapts a function to the Engine interface. Close is a no-op.
type EngineFunc func(ctx context.Context, input postprocess.Tensor) (postprocess.Tensor, error)

// Run calls f.
func (f EngineFunc) Run(ctx context.Context, input postprocess.Tensor) (postprocess.Tensor, error) {
	return f(ctx, input)
}

// Close implements Engine.
func (f EngineFunc) Close() error {
	return nil
}

// StaticEngine returns a fixed output for every input. It records the
// inputs it receives and is safe for concurrent use.
type StaticEngine struct {
	Output postprocess.Tensor
	Err    error

	mu     sync.Mutex
	inputs []postprocess.Tensor
	closed bool
}

// NewStaticEngine returns an engine that always produces output.
func NewStaticEngine(output []float32, shape ...int64) *StaticEngine {
	if len(shape) == 0 {
		shape = []int64{int64(len(output))}
	}
	return &StaticEngine{Output: postprocess.Tensor{Data: output, Shape: shape}}
}

// Run returns a copy of the configured output, or Err.
func (e *StaticEngine) Run(ctx context.Context, input postprocess.Tensor) (postprocess.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return postprocess.Tensor{}, err
	}

	e.mu.Lock()
	e.inputs = append(e.inputs, input)
	e.mu.Unlock()

	if e.Err != nil {
		return postprocess.Tensor{}, e.Err
	}
	data := make([]float32, len(e.Output.Data))
	copy(data, e.Output.Data)
	return postprocess.Tensor{Data: data, Shape: append([]int64(nil), e.Output.Shape...)}, nil
}

// Inputs returns the tensors passed to Run so far.
func (e *StaticEngine) Inputs() []postprocess.Tensor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]postprocess.Tensor(nil), e.inputs...)
}

// Closed reports whether Close was called.
func (e *StaticEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close implements Engine.
func (e *StaticEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
