// Package providers - onnxruntime execution providers and sessions.
package providers

import (
	"fmt"
	"strings"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	Backend() ProviderBackend
	Options() ProviderOptions
}

// ParseBackend parses a case-insensitive backend name. Empty means CPU.
func ParseBackend(s string) (ProviderBackend, error) {
	switch b := ProviderBackend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return CPUProviderBackend, nil
	case CPUProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend, CUDAProviderBackend:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported provider backend: %q", s)
	}
}

// NewProvider creates a new provider for the configured backend.
//
// Arguments:
//   - config: The provider configuration. Backend options left nil use their defaults.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the backend is unknown.
func NewProvider(config Config) (ExecutionProvider, error) {
	switch config.Backend {
	case CPUProviderBackend, "":
		return NewCPUProvider(), nil
	case CoreMLProviderBackend:
		opts := CoreMLOptions{}
		if config.CoreML != nil {
			opts = *config.CoreML
		}
		return NewCoreMLProvider(opts), nil
	case OpenVINOProviderBackend:
		opts := OpenVINOOptions{}
		if config.OpenVINO != nil {
			opts = *config.OpenVINO
		}
		return NewOpenVINOProvider(opts), nil
	case CUDAProviderBackend:
		opts := CUDAOptions{DoCopyInDefaultStream: true}
		if config.CUDA != nil {
			opts = *config.CUDA
		}
		return NewCUDAProvider(opts), nil
	default:
		return nil, fmt.Errorf("no matching provider backend registered: %s", config.Backend)
	}
}
