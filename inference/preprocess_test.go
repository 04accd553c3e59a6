package inference

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/nvr-ai/care-symbols/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPreprocessUint8(t *testing.T) {
	info := TensorInfo{Name: "image", Shape: []int64{1, 8, 6, 3}, DataType: Uint8}
	data := encodePNG(t, solidImage(30, 20, color.RGBA{R: 255, G: 128, B: 0, A: 255}))

	dense, err := Preprocess(data, info)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 8, 6, 3}, dense.Shape())
	assert.Equal(t, tensor.Uint8, dense.Dtype())

	backing := dense.Data().([]uint8)
	require.Len(t, backing, 8*6*3)
	assert.Equal(t, []uint8{255, 128, 0}, backing[:3])
	assert.Equal(t, []uint8{255, 128, 0}, backing[len(backing)-3:])
}

func TestPreprocessFloat32(t *testing.T) {
	info := TensorInfo{Name: "image", Shape: []int64{-1, 4, 4, 3}, DataType: Float32}
	data := encodePNG(t, solidImage(4, 4, color.RGBA{R: 255, G: 51, B: 0, A: 255}))

	dense, err := Preprocess(data, info)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 4, 4, 3}, dense.Shape())
	assert.Equal(t, tensor.Float32, dense.Dtype())

	backing := dense.Data().([]float32)
	for i := 0; i < len(backing); i += 3 {
		assert.InDelta(t, 1.0, backing[i], 1e-6)
		assert.InDelta(t, 0.2, backing[i+1], 1e-6)
		assert.InDelta(t, 0.0, backing[i+2], 1e-6)
	}
}

func TestPreprocessHWCOrder(t *testing.T) {
	info := TensorInfo{Shape: []int64{1, 2, 2, 3}, DataType: Uint8}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 4, G: 5, B: 6, A: 255})
	img.SetRGBA(0, 1, color.RGBA{R: 7, G: 8, B: 9, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 11, B: 12, A: 255})

	dense, err := PreprocessImage(img, info)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, dense.Data())
}

func TestPreprocessIdempotentAtInputSize(t *testing.T) {
	info := TensorInfo{Shape: []int64{1, 5, 7, 3}, DataType: Uint8}
	img := image.NewRGBA(image.Rect(0, 0, 7, 5))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 13)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	first, err := PreprocessImage(img, info)
	require.NoError(t, err)
	second, err := PreprocessImage(img, info)
	require.NoError(t, err)

	assert.Equal(t, first.Data(), second.Data())
	backing := first.Data().([]uint8)
	assert.Equal(t, img.Pix[0:3], backing[0:3])
}

func TestPreprocessDecodeError(t *testing.T) {
	info := TensorInfo{Shape: []int64{1, 4, 4, 3}, DataType: Uint8}

	_, err := Preprocess([]byte("definitely not an image"), info)
	assert.True(t, errors.Is(err, images.ErrDecode))
}
