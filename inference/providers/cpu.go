package providers

const (
	// CPUProviderBackend runs on the default onnxruntime CPU kernels.
	CPUProviderBackend ProviderBackend = "cpu"
)

// CPUOptions carries no settings; threading lives on Config.
type CPUOptions struct{}

func (CPUOptions) isProviderOptions() {}

// CPUProvider implements the ExecutionProvider interface.
type CPUProvider struct{}

// Backend returns the backend of the CPU provider.
func (p *CPUProvider) Backend() ProviderBackend {
	return CPUProviderBackend
}

// Options returns the options of the CPU provider.
func (p *CPUProvider) Options() ProviderOptions {
	return CPUOptions{}
}

// NewCPUProvider creates a new CPU provider.
func NewCPUProvider() *CPUProvider {
	return &CPUProvider{}
}
