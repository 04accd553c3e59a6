// Package inference - ONNX model sessions, input assembly and the shared runtime holder.
package inference

import (
	"fmt"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// ErrModelLoad is returned when a model artifact cannot be loaded or does not
// have the expected image classifier signature.
var ErrModelLoad = errors.New("model load failed")

// DataType is the element type of a model input.
type DataType string

const (
	// Uint8 inputs keep raw 0-255 pixel values.
	Uint8 DataType = "uint8"
	// Float32 inputs are scaled to [0,1].
	Float32 DataType = "float32"
)

// Dtype returns the tensor dtype for the element type.
func (d DataType) Dtype() tensor.Dtype {
	if d == Uint8 {
		return tensor.Uint8
	}
	return tensor.Float32
}

// TensorInfo describes one model input or output.
type TensorInfo struct {
	Name     string   `json:"name"`
	Shape    []int64  `json:"shape"`
	DataType DataType `json:"dtype"`
	Index    int      `json:"index"`
}

// Height returns the H of an NHWC input.
func (t TensorInfo) Height() int { return int(t.Shape[1]) }

// Width returns the W of an NHWC input.
func (t TensorInfo) Width() int { return int(t.Shape[2]) }

// Channels returns the C of an NHWC input.
func (t TensorInfo) Channels() int { return int(t.Shape[3]) }

// TensorShape returns the shape with a dynamic batch resolved to 1.
func (t TensorInfo) TensorShape() tensor.Shape {
	shape := make(tensor.Shape, len(t.Shape))
	for i, d := range t.Shape {
		shape[i] = int(d)
	}
	if len(shape) > 0 && shape[0] < 1 {
		shape[0] = 1
	}
	return shape
}

func (t TensorInfo) String() string {
	return fmt.Sprintf("%s[%d] %v %s", t.Name, t.Index, t.Shape, t.DataType)
}

// describeIO validates the raw input/output descriptors of a model and
// converts them into TensorInfo.
//
// The model must have exactly one rank-4 NHWC image input with 3 channels
// and element type uint8 or float32, and exactly one float32 output.
//
// Arguments:
//   - inputs: The model inputs as reported by ONNX Runtime.
//   - outputs: The model outputs as reported by ONNX Runtime.
//
// Returns:
//   - TensorInfo: The input descriptor, batch resolved to 1.
//   - TensorInfo: The output descriptor.
//   - error: An error wrapping ErrModelLoad if the signature is unsupported.
func describeIO(inputs, outputs []ort.InputOutputInfo) (TensorInfo, TensorInfo, error) {
	if len(inputs) != 1 {
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "expected 1 input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "expected 1 output, got %d", len(outputs))
	}

	in := inputs[0]
	if len(in.Dimensions) != 4 {
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "input %q has rank %d, expected 4", in.Name, len(in.Dimensions))
	}
	if in.Dimensions[3] != 3 {
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "input %q has %d channels, expected 3 (NHWC)", in.Name, in.Dimensions[3])
	}
	if in.Dimensions[1] <= 0 || in.Dimensions[2] <= 0 {
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "input %q has dynamic spatial dims %v", in.Name, in.Dimensions)
	}

	var dtype DataType
	switch in.DataType {
	case ort.TensorElementDataTypeUint8:
		dtype = Uint8
	case ort.TensorElementDataTypeFloat:
		dtype = Float32
	default:
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "input %q has unsupported element type %v", in.Name, in.DataType)
	}

	out := outputs[0]
	if out.DataType != ort.TensorElementDataTypeFloat {
		return TensorInfo{}, TensorInfo{}, errors.Wrapf(ErrModelLoad, "output %q has unsupported element type %v", out.Name, out.DataType)
	}

	shape := append([]int64(nil), in.Dimensions...)
	if shape[0] < 1 {
		shape[0] = 1
	}

	return TensorInfo{Name: in.Name, Shape: shape, DataType: dtype, Index: 0},
		TensorInfo{Name: out.Name, Shape: append([]int64(nil), out.Dimensions...), DataType: Float32, Index: 0},
		nil
}
