package inference

import (
	"context"
	"sync"
	"time"

	"github.com/nvr-ai/care-symbols/inference/providers"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// Session represents a loaded classifier model in the onnxruntime.
type Session struct {
	Path   string
	Input  TensorInfo
	Output TensorInfo

	mu             sync.Mutex
	session        *ort.DynamicAdvancedSession
	inferenceCount int64
	totalTime      time.Duration
}

// Stats holds the running totals of a session.
type Stats struct {
	InferenceCount int64         `json:"inference_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
}

// NewSession loads an ONNX model and validates its signature.
//
// providers.Initialize must have been called first.
//
// Arguments:
//   - path: Path to the ONNX model file.
//   - opts: Session execution options.
//
// Returns:
//   - *Session: The loaded session.
//   - error: An error wrapping ErrModelLoad if the artifact is unreadable or incompatible.
func NewSession(path string, opts providers.Options) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "failed to read model %s: %v", path, err)
	}
	in, out, err := describeIO(inputs, outputs)
	if err != nil {
		return nil, err
	}

	options, err := providers.NewSessionOptions(opts)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(path, []string{in.Name}, []string{out.Name}, options)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "failed to create session for %s: %v", path, err)
	}

	return &Session{
		Path:    path,
		Input:   in,
		Output:  out,
		session: session,
	}, nil
}

// Run executes the model on a preprocessed tensor.
//
// Arguments:
//   - t: A tensor whose shape and dtype match the input descriptor.
//
// Returns:
//   - []float32: A fresh copy of the output scores with the batch flattened.
//   - error: An error if the tensor does not match or the run fails.
func (s *Session) Run(t *tensor.Dense) ([]float32, error) {
	if !t.Shape().Eq(s.Input.TensorShape()) {
		return nil, errors.Errorf("input shape %v does not match model input %v", t.Shape(), s.Input.TensorShape())
	}
	if t.Dtype() != s.Input.DataType.Dtype() {
		return nil, errors.Errorf("input dtype %v does not match model input %s", t.Dtype(), s.Input.DataType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	shape := make([]int64, len(t.Shape()))
	for i, d := range t.Shape() {
		shape[i] = int64(d)
	}

	var (
		input ort.Value
		err   error
	)
	switch backing := t.Data().(type) {
	case []uint8:
		input, err = ort.NewTensor(ort.NewShape(shape...), backing)
	case []float32:
		input, err = ort.NewTensor(ort.NewShape(shape...), backing)
	default:
		return nil, errors.Errorf("unsupported tensor backing %T", backing)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	defer input.Destroy()

	start := time.Now()
	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}
	defer outputs[0].Destroy()

	s.inferenceCount++
	s.totalTime += time.Since(start)

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Errorf("unexpected output value %T", outputs[0])
	}
	return append([]float32(nil), out.GetData()...), nil
}

// Predict preprocesses encoded image bytes and runs the model on them.
func (s *Session) Predict(ctx context.Context, data []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := Preprocess(data, s.Input)
	if err != nil {
		return nil, err
	}
	return s.Run(t)
}

// Stats returns the running totals.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{InferenceCount: s.inferenceCount, TotalTime: s.totalTime}
	if s.inferenceCount > 0 {
		stats.AverageTime = s.totalTime / time.Duration(s.inferenceCount)
	}
	return stats
}

// Close releases the native session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
