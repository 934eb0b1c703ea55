package providers

import (
	"strconv"

	"github.com/nvr-ai/go-censor/models/model"
)

const (
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// OpenVINOProvider implements the ExecutionProvider interface.
type OpenVINOProvider struct {
	options OpenVINOOptions
}

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	DeviceID string `json:"deviceID"             yaml:"deviceID"`
	// Overrides the accelerator hardware type with these values at runtime. If this option is not
	// explicitly set, default hardware specified during build is used.
	DeviceType string `json:"deviceType"           yaml:"deviceType"`
	// Supported precisions for HW {CPU:FP32, GPU:[FP32, FP16, ACCURACY], NPU:FP16}. To execute
	// model with the default input precision, select ACCURACY precision type.
	Precision model.Precision `json:"precision"            yaml:"precision"`
	// Overrides the accelerator default value of number of threads with this value at runtime.
	NumOfThreads int `json:"numOfThreads"         yaml:"numOfThreads"`
	// Overrides the accelerator default streams with this value at runtime.
	NumStreams int `json:"numStreams"           yaml:"numStreams"`
	// This option enables rewriting dynamic shaped models to static shape at runtime and execute.
	DisableDynamicShapes bool `json:"disableDynamicShapes" yaml:"disableDynamicShapes"`
}

// isProviderOptions is a marker function to ensure the options are valid.
func (OpenVINOOptions) isProviderOptions() {}

// ProviderOptions returns the key/value map onnxruntime expects. Unset
// fields are omitted so that onnxruntime keeps its own defaults.
func (o OpenVINOOptions) ProviderOptions() map[string]string {
	config := map[string]string{}
	if o.DeviceID != "" {
		config["device_id"] = o.DeviceID
	}
	if o.DeviceType != "" {
		config["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		config["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		config["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		config["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	if o.DisableDynamicShapes {
		config["disable_dynamic_shapes"] = "true"
	}
	return config
}

// Backend returns the backend of the OpenVINO provider.
func (p *OpenVINOProvider) Backend() ProviderBackend {
	return OpenVINOProviderBackend
}

// Options returns the options of the OpenVINO provider.
func (p *OpenVINOProvider) Options() ProviderOptions {
	return p.options
}

// NewOpenVINOProvider creates a new OpenVINO provider.
func NewOpenVINOProvider(args OpenVINOOptions) *OpenVINOProvider {
	return &OpenVINOProvider{options: args}
}
