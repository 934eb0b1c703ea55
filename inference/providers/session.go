package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nvr-ai/go-censor/models/postprocess"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrSessionClosed is returned by Run after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrShapeMismatch is returned when an input does not match the bound tensor.
	ErrShapeMismatch = errors.New("input shape mismatch")
	// ErrLibraryNotFound is returned when the onnxruntime shared library is missing.
	ErrLibraryNotFound = errors.New("onnxruntime library not found")
)

// envMu serializes process-wide environment initialization.
var envMu sync.Mutex

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// The input node name. Defaults to "input".
	InputName string
	// The output node name. Defaults to "output".
	OutputName string
	// InputShape is the shape of the single float32 input tensor.
	InputShape []int64
	// OutputShape is the shape of the single float32 output tensor.
	OutputShape []int64
}

// Metrics summarizes the runs of a session.
type Metrics struct {
	InferenceCount int64         `json:"inference_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
}

// Session represents a model session from the onnxruntime with preallocated
// input and output tensors. Run calls are serialized.
type Session struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	backend  ProviderBackend
	inShape  []int64
	outShape []int64

	inferenceCount int64
	totalTime      time.Duration
}

// NewSession creates a new onnxruntime session.
//
// Order of operations:
//  1. Library path check: Ensures native runtime is accessible.
//  2. Environment setup: Required once per process to prepare ONNX Runtime internals.
//  3. Tensor allocation: Prepares fixed-shape buffers for input/output data.
//  4. Session options: Threading, optimization level and the execution provider.
//  5. Session creation: Loads model and binds resources.
//  6. Warmup: Optional throwaway runs on a zeroed input.
//
// Arguments:
//   - config: The provider configuration.
//   - args: The model path, node names and tensor shapes.
//
// Returns:
//   - *Session: The session. The caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(config Config, args NewSessionArgs) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(args.InputShape) == 0 || len(args.OutputShape) == 0 {
		return nil, fmt.Errorf("input and output shapes are required")
	}
	if args.InputName == "" {
		args.InputName = "input"
	}
	if args.OutputName == "" {
		args.OutputName = "output"
	}

	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	if err := initEnvironment(GetSharedLibPath(config.LibraryPath)); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	options, err := OptimizedSessionOptions(config.Optimization, provider)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		[]string{args.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	s := &Session{
		session:  session,
		input:    input,
		output:   output,
		backend:  provider.Backend(),
		inShape:  append([]int64(nil), args.InputShape...),
		outShape: append([]int64(nil), args.OutputShape...),
	}

	for i := 0; i < config.Warmup; i++ {
		if err := session.Run(); err != nil {
			s.Close()
			return nil, fmt.Errorf("warmup run %d: %w", i, err)
		}
	}

	return s, nil
}

// initEnvironment loads the shared library once per process.
func initEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		return fmt.Errorf("%w: no default for this platform, set %s", ErrLibraryNotFound, LibraryPathEnv)
	}
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("%w at %s: %v", ErrLibraryNotFound, libPath, err)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// Backend returns the execution provider the session runs on.
func (s *Session) Backend() ProviderBackend {
	return s.backend
}

// Run copies input into the bound tensor, runs the model and returns a copy
// of the output.
//
// Arguments:
//   - ctx: Checked before the run; a native run cannot be interrupted.
//   - input: A tensor whose shape matches the session input.
//
// Returns:
//   - postprocess.Tensor: The output with the session output shape.
//   - error: ErrShapeMismatch, ErrSessionClosed, the context error, or a runtime failure.
func (s *Session) Run(ctx context.Context, input postprocess.Tensor) (postprocess.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return postprocess.Tensor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return postprocess.Tensor{}, ErrSessionClosed
	}
	if !sameElements(input, s.inShape) {
		return postprocess.Tensor{}, fmt.Errorf("%w: got %v with %d values, want %v",
			ErrShapeMismatch, input.Shape, len(input.Data), s.inShape)
	}

	copy(s.input.GetData(), input.Data)

	start := time.Now()
	err := s.session.Run()
	s.inferenceCount++
	s.totalTime += time.Since(start)
	if err != nil {
		return postprocess.Tensor{}, fmt.Errorf("error running ORT session: %w", err)
	}

	out := make([]float32, len(s.output.GetData()))
	copy(out, s.output.GetData())
	return postprocess.Tensor{Data: out, Shape: append([]int64(nil), s.outShape...)}, nil
}

// Metrics returns the run statistics collected so far.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{InferenceCount: s.inferenceCount, TotalTime: s.totalTime}
	if s.inferenceCount > 0 {
		m.AverageTime = s.totalTime / time.Duration(s.inferenceCount)
	}
	return m
}

// ResetMetrics clears all performance counters.
func (s *Session) ResetMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inferenceCount = 0
	s.totalTime = 0
}

// Close releases the resources associated with the Session. It is safe to
// call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return fmt.Errorf("error destroying ORT session: %w", err)
		}
	}
	return nil
}

// sameElements reports whether t carries exactly as many values as shape
// describes. A shape that differs only in layout (for example a missing
// batch dimension) is accepted.
func sameElements(t postprocess.Tensor, shape []int64) bool {
	want := postprocess.Tensor{Shape: shape}.Elements()
	return int64(len(t.Data)) == want && (len(t.Shape) == 0 || t.Elements() == want)
}
