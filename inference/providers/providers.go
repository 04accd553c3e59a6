package providers

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var envMu sync.Mutex

// Initialize points ONNX Runtime at its shared library and initializes the
// native environment. It is safe to call repeatedly; only the first
// successful call has any effect.
//
// Arguments:
//   - libPath: The shared library path. Empty means GetSharedLibPath().
//
// Returns:
//   - error: An error if the library is missing or fails to initialize.
func Initialize(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// Shutdown releases the native environment.
func Shutdown() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// Options controls how a session executes the model graph.
type Options struct {
	// IntraOpNumThreads sets threads used inside a single operator. 0 lets ONNX Runtime decide.
	IntraOpNumThreads int `json:"intra_op_num_threads"`
	// InterOpNumThreads sets threads used across independent operators. 0 lets ONNX Runtime decide.
	InterOpNumThreads int `json:"inter_op_num_threads"`
	// GraphOptimizationLevel controls graph rewrites applied at load time.
	GraphOptimizationLevel ort.GraphOptimizationLevel `json:"graph_optimization_level"`
}

// DefaultOptions returns options suited to a single-request-at-a-time
// function sandbox: one intra-op thread and sequential graph execution.
func DefaultOptions() Options {
	return Options{
		IntraOpNumThreads:      1,
		InterOpNumThreads:      1,
		GraphOptimizationLevel: ort.GraphOptimizationLevelEnableExtended,
	}
}

// NewSessionOptions builds native session options.
//
// **Note: The caller must Destroy the returned options.**
//
// Arguments:
//   - opts: The options to apply.
//
// Returns:
//   - *ort.SessionOptions: Configured session options.
//   - error: Configuration error if any.
func NewSessionOptions(opts Options) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"graph optimization level", func() error { return options.SetGraphOptimizationLevel(opts.GraphOptimizationLevel) }},
		{"execution mode", func() error { return options.SetExecutionMode(ort.ExecutionModeSequential) }},
		{"intra-op threads", func() error { return options.SetIntraOpNumThreads(opts.IntraOpNumThreads) }},
		{"inter-op threads", func() error { return options.SetInterOpNumThreads(opts.InterOpNumThreads) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			options.Destroy()
			return nil, errors.Wrapf(err, "failed to set %s", step.name)
		}
	}
	return options, nil
}
