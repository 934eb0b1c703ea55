package providers

import (
	"fmt"
)

// Config represents the configuration of an onnxruntime session.
type Config struct {
	// Backend specifies the execution provider to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`

	// LibraryPath points at the onnxruntime shared library. Empty uses
	// $ONNXRUNTIME_SHARED_LIBRARY_PATH and then the platform default.
	LibraryPath string `json:"library_path" yaml:"library_path"`

	// Optimization controls threading and graph rewrites.
	Optimization OptimizationConfig `json:"optimization" yaml:"optimization"`

	// Warmup defines how many inference runs to perform during initialization.
	Warmup int `json:"warmup" yaml:"warmup"`

	// Backend specific options. Only the one matching Backend is used.
	CoreML   *CoreMLOptions   `json:"coreml,omitempty" yaml:"coreml,omitempty"`
	OpenVINO *OpenVINOOptions `json:"openvino,omitempty" yaml:"openvino,omitempty"`
	CUDA     *CUDAOptions     `json:"cuda,omitempty" yaml:"cuda,omitempty"`
}

// DefaultConfig returns a CPU configuration with sensible defaults.
//
// Returns:
//   - Config: Production-ready configuration
//
// @example
// config := DefaultConfig()
// session, err := NewSession(config, args)
func DefaultConfig() Config {
	return Config{
		Backend:      CPUProviderBackend,
		Optimization: DefaultOptimizationConfig(),
		Warmup:       0,
	}
}

// Validate checks the configuration before any native resource is touched.
func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", c.Warmup)
	}
	if c.Optimization.IntraOpNumThreads < 0 || c.Optimization.InterOpNumThreads < 0 {
		return fmt.Errorf("thread counts must not be negative")
	}
	if _, err := ParseGraphOptimizationLevel(c.Optimization.GraphOptimization); err != nil {
		return err
	}
	if _, err := ParseExecutionMode(c.Optimization.ExecutionMode); err != nil {
		return err
	}
	return nil
}
