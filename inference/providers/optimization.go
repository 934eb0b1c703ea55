package providers

import (
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// OptimizationConfig contains ONNX Runtime optimization settings.
type OptimizationConfig struct {
	// GraphOptimization is one of disable, basic, extended or all.
	GraphOptimization string `json:"graph_optimization" yaml:"graph_optimization"`

	// ExecutionMode is sequential or parallel.
	ExecutionMode string `json:"execution_mode" yaml:"execution_mode"`

	// IntraOpNumThreads sets threads for parallelizing ops. Zero lets onnxruntime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`

	// InterOpNumThreads sets threads for parallelizing independent ops. Zero lets onnxruntime decide.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`
}

// DefaultOptimizationConfig returns the optimization settings used by DefaultConfig.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		GraphOptimization: "extended",
		ExecutionMode:     "sequential",
	}
}

// ParseGraphOptimizationLevel maps a level name onto the onnxruntime constant.
// Empty selects extended.
func ParseGraphOptimizationLevel(s string) (ort.GraphOptimizationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disable", "none":
		return ort.GraphOptimizationLevelDisableAll, nil
	case "basic":
		return ort.GraphOptimizationLevelEnableBasic, nil
	case "extended", "":
		return ort.GraphOptimizationLevelEnableExtended, nil
	case "all":
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return 0, fmt.Errorf("unknown graph optimization level %q", s)
	}
}

// ParseExecutionMode maps a mode name onto the onnxruntime constant.
// Empty selects sequential.
func ParseExecutionMode(s string) (ort.ExecutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "":
		return ort.ExecutionModeSequential, nil
	case "parallel":
		return ort.ExecutionModeParallel, nil
	default:
		return 0, fmt.Errorf("unknown execution mode %q", s)
	}
}

// OptimizedSessionOptions builds session options for config and appends the
// execution provider.
//
// Arguments:
//   - config: Optimization configuration to apply
//   - provider: The execution provider to enable
//
// Returns:
//   - *ort.SessionOptions: Configured session options, owned by the caller
//   - error: Configuration error if any
//
// @example
// options, err := OptimizedSessionOptions(DefaultOptimizationConfig(), NewCPUProvider())
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// defer options.Destroy()
func OptimizedSessionOptions(config OptimizationConfig, provider ExecutionProvider) (*ort.SessionOptions, error) {
	level, err := ParseGraphOptimizationLevel(config.GraphOptimization)
	if err != nil {
		return nil, err
	}
	mode, err := ParseExecutionMode(config.ExecutionMode)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	apply := []func() error{
		func() error { return options.SetGraphOptimizationLevel(level) },
		func() error { return options.SetExecutionMode(mode) },
		func() error { return options.SetIntraOpNumThreads(config.IntraOpNumThreads) },
		func() error { return options.SetInterOpNumThreads(config.InterOpNumThreads) },
		func() error { return appendExecutionProvider(options, provider) },
	}
	for _, fn := range apply {
		if err := fn(); err != nil {
			options.Destroy()
			return nil, err
		}
	}

	return options, nil
}

// appendExecutionProvider enables the accelerator behind provider. CPU needs
// no explicit configuration.
func appendExecutionProvider(options *ort.SessionOptions, provider ExecutionProvider) error {
	switch opts := provider.Options().(type) {
	case CPUOptions:
		return nil
	case CoreMLOptions:
		if err := options.AppendExecutionProviderCoreML(opts.Flags()); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}
	case OpenVINOOptions:
		if err := options.AppendExecutionProviderOpenVINO(opts.ProviderOptions()); err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}
	case CUDAOptions:
		cuda, err := opts.ToNativeProviderOptions()
		if err != nil {
			return fmt.Errorf("error converting CUDA options: %w", err)
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}
	default:
		return fmt.Errorf("unsupported provider options type: %T", opts)
	}
	return nil
}
