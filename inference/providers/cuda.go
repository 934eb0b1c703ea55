package providers

import (
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CUDAProviderBackend uses NVIDIA CUDA for inference optimization.
	CUDAProviderBackend ProviderBackend = "cuda"
)

// CUDAProvider implements the ExecutionProvider interface.
type CUDAProvider struct {
	options CUDAOptions
}

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"deviceID"              yaml:"deviceID"`
	// Whether to do copies in the default stream or use separate streams. The recommended setting is
	// true. If false, there are race conditions and possibly better performance.
	DoCopyInDefaultStream bool `json:"doCopyInDefaultStream" yaml:"doCopyInDefaultStream"`
	// The size limit of the device memory arena in bytes. Zero leaves it unlimited.
	GPUMemLimit int64 `json:"gpuMemLimit"           yaml:"gpuMemLimit"`
	// The strategy for extending the device memory arena.
	// kNextPowerOfTwo or kSameAsRequested.
	ArenaExtendStrategy string `json:"arenaExtendStrategy"   yaml:"arenaExtendStrategy"`
	// The type of search done for cuDNN convolution algorithms.
	// EXHAUSTIVE, HEURISTIC or DEFAULT.
	CudnnConvAlgoSearch string `json:"cudnnConvAlgoSearch"   yaml:"cudnnConvAlgoSearch"`
	// TF32 allows float32 matrix multiplications to run on tensor cores at reduced precision.
	UseTF32 bool `json:"useTF32"               yaml:"useTF32"`
	// If this option is enabled, the execution provider prefers NHWC operators over NCHW.
	PreferNHWC bool `json:"preferNHWC"            yaml:"preferNHWC"`
}

// ProviderOptions returns the key/value map onnxruntime expects.
func (o CUDAOptions) ProviderOptions() map[string]string {
	config := map[string]string{
		"device_id":                 strconv.Itoa(o.DeviceID),
		"do_copy_in_default_stream": boolFlag(o.DoCopyInDefaultStream),
		"use_tf32":                  boolFlag(o.UseTF32),
		"prefer_nhwc":               boolFlag(o.PreferNHWC),
	}
	if o.GPUMemLimit > 0 {
		config["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	if o.ArenaExtendStrategy != "" {
		config["arena_extend_strategy"] = o.ArenaExtendStrategy
	}
	if o.CudnnConvAlgoSearch != "" {
		config["cudnn_conv_algo_search"] = o.CudnnConvAlgoSearch
	}
	return config
}

// ToNativeProviderOptions converts the CUDA options to native CUDA provider options.
// The caller must Destroy the result.
func (o CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, err
	}
	if err := opts.Update(o.ProviderOptions()); err != nil {
		opts.Destroy()
		return nil, err
	}
	return opts, nil
}

// isProviderOptions is a marker function to ensure the options are valid.
func (CUDAOptions) isProviderOptions() {}

// Backend returns the backend of the CUDA provider.
func (p *CUDAProvider) Backend() ProviderBackend {
	return CUDAProviderBackend
}

// Options returns the options of the CUDA provider.
func (p *CUDAProvider) Options() ProviderOptions {
	return p.options
}

// NewCUDAProvider creates a new CUDA provider.
func NewCUDAProvider(args CUDAOptions) *CUDAProvider {
	return &CUDAProvider{
		options: args,
	}
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
