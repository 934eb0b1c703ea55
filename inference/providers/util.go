package providers

import (
	"os"
	"runtime"
)

// LibraryPathEnv names the environment variable that overrides the library location.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the onnxruntime shared library.
//
// An explicit override wins, then $ONNXRUNTIME_SHARED_LIBRARY_PATH, then the
// bundled library for the current platform.
//
// Arguments:
//   - override: A configured path, or "".
//
// Returns:
//   - string: The path to the shared library, or "" for an unsupported platform.
func GetSharedLibPath(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(LibraryPathEnv); env != "" {
		return env
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
	return ""
}
