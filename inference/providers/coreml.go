package providers

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreML EP flags from coreml_provider_factory.h.
const (
	coreMLFlagUseCPUOnly                uint32 = 0x001
	coreMLFlagEnableOnSubgraph          uint32 = 0x002
	coreMLFlagOnlyEnableDeviceWithANE   uint32 = 0x004
	coreMLFlagOnlyAllowStaticInputShape uint32 = 0x008
	coreMLFlagCreateMLProgram           uint32 = 0x010
)

// CoreMLProvider implements the ExecutionProvider interface.
type CoreMLProvider struct {
	options CoreMLOptions
}

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// MLProgram: Create an MLProgram format model. Requires Core ML 5 or later (iOS 15+ or macOS 12+).
	// NeuralNetwork: Create a NeuralNetwork format model. Requires Core ML 3 or later.
	// Default: NeuralNetwork
	ModelFormat string `json:"modelFormat"              yaml:"modelFormat"`
	// CPUOnly: Limit CoreML to running on CPU only.
	// CPUAndNeuralEngine: Only enable the EP on devices with an Apple Neural Engine.
	// ALL: Enable CoreML EP for all compatible Apple devices.
	// Default: ALL
	MLComputeUnits string `json:"mlComputeUnits"           yaml:"mlComputeUnits"`
	// Only allow the CoreML EP to take nodes with inputs that have static shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// Enable CoreML EP to run on a subgraph in the body of a control flow operator.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs"        yaml:"enableOnSubgraphs"`
}

func (CoreMLOptions) isProviderOptions() {}

// Flags converts the options into the legacy CoreML EP bit flags.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	switch o.MLComputeUnits {
	case "CPUOnly":
		flags |= coreMLFlagUseCPUOnly
	case "CPUAndNeuralEngine":
		flags |= coreMLFlagOnlyEnableDeviceWithANE
	}
	if o.ModelFormat == "MLProgram" {
		flags |= coreMLFlagCreateMLProgram
	}
	if o.RequireStaticInputShapes {
		flags |= coreMLFlagOnlyAllowStaticInputShape
	}
	if o.EnableOnSubgraphs {
		flags |= coreMLFlagEnableOnSubgraph
	}
	return flags
}

// Backend returns the backend of the CoreML provider.
func (p *CoreMLProvider) Backend() ProviderBackend {
	return CoreMLProviderBackend
}

// Options returns the options of the CoreML provider.
func (p *CoreMLProvider) Options() ProviderOptions {
	return p.options
}

// NewCoreMLProvider creates a new CoreML provider.
func NewCoreMLProvider(options CoreMLOptions) *CoreMLProvider {
	return &CoreMLProvider{
		options: options,
	}
}
