package providers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := map[string]ProviderBackend{
		"":         CPUProviderBackend,
		"cpu":      CPUProviderBackend,
		" CoreML ": CoreMLProviderBackend,
		"OPENVINO": OpenVINOProviderBackend,
		"cuda":     CUDAProviderBackend,
	}
	for in, want := range tests {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBackend("tensorrt")
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Equal(t, CPUProviderBackend, p.Backend())
	assert.IsType(t, CPUOptions{}, p.Options())

	p, err = NewProvider(Config{Backend: OpenVINOProviderBackend, OpenVINO: &OpenVINOOptions{DeviceType: "GPU"}})
	require.NoError(t, err)
	assert.Equal(t, OpenVINOProviderBackend, p.Backend())
	assert.Equal(t, "GPU", p.Options().(OpenVINOOptions).DeviceType)

	p, err = NewProvider(Config{Backend: CUDAProviderBackend})
	require.NoError(t, err)
	assert.True(t, p.Options().(CUDAOptions).DoCopyInDefaultStream)

	p, err = NewProvider(Config{Backend: CoreMLProviderBackend})
	require.NoError(t, err)
	assert.Equal(t, CoreMLProviderBackend, p.Backend())

	_, err = NewProvider(Config{Backend: "dnnl"})
	assert.Error(t, err)
}

func TestCoreMLFlags(t *testing.T) {
	assert.Equal(t, uint32(0), CoreMLOptions{}.Flags())
	assert.Equal(t, uint32(0x001|0x010|0x008),
		CoreMLOptions{MLComputeUnits: "CPUOnly", ModelFormat: "MLProgram", RequireStaticInputShapes: true}.Flags())
	assert.Equal(t, uint32(0x004|0x002),
		CoreMLOptions{MLComputeUnits: "CPUAndNeuralEngine", EnableOnSubgraphs: true}.Flags())
}

func TestOpenVINOProviderOptions(t *testing.T) {
	assert.Empty(t, OpenVINOOptions{}.ProviderOptions())
	assert.Equal(t, map[string]string{
		"device_type":    "CPU",
		"precision":      "FP16",
		"num_of_threads": "4",
	}, OpenVINOOptions{DeviceType: "CPU", Precision: model.PrecisionFP16, NumOfThreads: 4}.ProviderOptions())
}

func TestCUDAProviderOptions(t *testing.T) {
	opts := CUDAOptions{DeviceID: 1, DoCopyInDefaultStream: true, GPUMemLimit: 1 << 31}.ProviderOptions()
	assert.Equal(t, "1", opts["device_id"])
	assert.Equal(t, "1", opts["do_copy_in_default_stream"])
	assert.Equal(t, "2147483648", opts["gpu_mem_limit"])
	assert.NotContains(t, opts, "arena_extend_strategy")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{}.Validate(), "zero config means cpu with defaults")

	bad := []Config{
		{Backend: "tpu"},
		{Warmup: -1},
		{Optimization: OptimizationConfig{IntraOpNumThreads: -2}},
		{Optimization: OptimizationConfig{GraphOptimization: "max"}},
		{Optimization: OptimizationConfig{ExecutionMode: "async"}},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate(), "%+v", c)
	}
}

func TestGetSharedLibPath(t *testing.T) {
	t.Setenv(LibraryPathEnv, "/opt/ort/libonnxruntime.so")
	assert.Equal(t, "/custom.so", GetSharedLibPath("/custom.so"))
	assert.Equal(t, "/opt/ort/libonnxruntime.so", GetSharedLibPath(""))
}

func TestNewSessionMissingLibrary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.so")
	_, err := NewSession(Config{LibraryPath: missing}, NewSessionArgs{
		ModelPath:   "model.onnx",
		InputShape:  []int64{1, 3, 256, 256},
		OutputShape: []int64{1, 1344, 22},
	})
	assert.True(t, errors.Is(err, ErrLibraryNotFound), "got %v", err)

	_, err = NewSession(DefaultConfig(), NewSessionArgs{ModelPath: "model.onnx"})
	assert.Error(t, err, "shapes are required")
}

func TestSessionRunGuards(t *testing.T) {
	s := &Session{inShape: []int64{1, 3, 2, 2}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Run(ctx, postprocess.Tensor{})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Run(context.Background(), postprocess.Tensor{Data: make([]float32, 12)})
	assert.ErrorIs(t, err, ErrSessionClosed)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "close is idempotent")
	assert.Equal(t, Metrics{}, s.Metrics())
}

func TestSameElements(t *testing.T) {
	shape := []int64{1, 3, 2, 2}
	assert.True(t, sameElements(postprocess.Tensor{Data: make([]float32, 12), Shape: []int64{3, 2, 2}}, shape))
	assert.True(t, sameElements(postprocess.Tensor{Data: make([]float32, 12)}, shape))
	assert.False(t, sameElements(postprocess.Tensor{Data: make([]float32, 11)}, shape))
	assert.False(t, sameElements(postprocess.Tensor{Data: make([]float32, 12), Shape: []int64{1, 3, 4, 4}}, shape))
}
