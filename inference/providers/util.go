// Package providers - ONNX Runtime environment and session option setup.
package providers

import (
	"path/filepath"
	"runtime"
)

// SharedLibDir is the directory searched for the ONNX Runtime shared library
// when no explicit path is configured.
const SharedLibDir = "third_party"

// GetSharedLibPath returns the default path to the shared library for the
// current platform.
//
// Returns:
//   - string: The path to the shared library.
func GetSharedLibPath() string {
	return filepath.Join(SharedLibDir, sharedLibName(runtime.GOOS, runtime.GOARCH))
}

func sharedLibName(goos, goarch string) string {
	switch goos {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		if goarch == "arm64" {
			return "libonnxruntime_arm64.dylib"
		}
		return "libonnxruntime.dylib"
	default:
		if goarch == "arm64" {
			return "libonnxruntime_arm64.so"
		}
		return "libonnxruntime.so"
	}
}
