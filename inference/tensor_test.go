package inference

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

func ioInfo(name string, dtype ort.TensorElementDataType, dims ...int64) ort.InputOutputInfo {
	return ort.InputOutputInfo{
		Name:         name,
		OrtValueType: ort.ONNXTypeTensor,
		Dimensions:   ort.NewShape(dims...),
		DataType:     dtype,
	}
}

func TestDescribeIO(t *testing.T) {
	out := []ort.InputOutputInfo{ioInfo("scores", ort.TensorElementDataTypeFloat, 1, 39)}

	t.Run("uint8 with dynamic batch", func(t *testing.T) {
		in := []ort.InputOutputInfo{ioInfo("image", ort.TensorElementDataTypeUint8, -1, 224, 192, 3)}

		input, output, err := describeIO(in, out)
		require.NoError(t, err)
		assert.Equal(t, "image", input.Name)
		assert.Equal(t, []int64{1, 224, 192, 3}, input.Shape)
		assert.Equal(t, Uint8, input.DataType)
		assert.Equal(t, 224, input.Height())
		assert.Equal(t, 192, input.Width())
		assert.Equal(t, 3, input.Channels())
		assert.Equal(t, "scores", output.Name)
		assert.Equal(t, []int64{1, 39}, output.Shape)
	})

	t.Run("float32", func(t *testing.T) {
		in := []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeFloat, 1, 64, 64, 3)}

		input, _, err := describeIO(in, out)
		require.NoError(t, err)
		assert.Equal(t, Float32, input.DataType)
		assert.Equal(t, tensor.Float32, input.DataType.Dtype())
	})

	rejects := []struct {
		name    string
		inputs  []ort.InputOutputInfo
		outputs []ort.InputOutputInfo
	}{
		{"no inputs", nil, out},
		{"two outputs", []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeUint8, 1, 8, 8, 3)}, append(out, out[0])},
		{"rank 3", []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeUint8, 8, 8, 3)}, out},
		{"NCHW", []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeFloat, 1, 3, 8, 8)}, out},
		{"dynamic spatial", []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeFloat, 1, -1, -1, 3)}, out},
		{"int64 input", []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeInt64, 1, 8, 8, 3)}, out},
		{"uint8 output", []ort.InputOutputInfo{ioInfo("x", ort.TensorElementDataTypeUint8, 1, 8, 8, 3)},
			[]ort.InputOutputInfo{ioInfo("y", ort.TensorElementDataTypeUint8, 1, 39)}},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := describeIO(tt.inputs, tt.outputs)
			assert.True(t, errors.Is(err, ErrModelLoad))
		})
	}
}

func TestTensorShapeResolvesBatch(t *testing.T) {
	info := TensorInfo{Shape: []int64{-1, 4, 5, 3}}
	assert.Equal(t, tensor.Shape{1, 4, 5, 3}, info.TensorShape())
	assert.Equal(t, []int64{-1, 4, 5, 3}, info.Shape)
}
