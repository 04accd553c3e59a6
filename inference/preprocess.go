package inference

import (
	"image"

	"github.com/nvr-ai/care-symbols/images"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Preprocess turns encoded image bytes into the model input tensor.
//
// The image is decoded, converted to 3-channel RGB, resized to the input's
// (W,H) and packed in HWC order behind a batch dimension of 1. uint8 inputs
// keep raw 0-255 values; float32 inputs are divided by 255.
//
// Arguments:
//   - data: The encoded image.
//   - info: The model input descriptor.
//
// Returns:
//   - *tensor.Dense: The (1,H,W,3) tensor.
//   - error: An error wrapping images.ErrDecode for undecodable bytes.
func Preprocess(data []byte, info TensorInfo) (*tensor.Dense, error) {
	img, _, err := images.Decode(data)
	if err != nil {
		return nil, err
	}
	return PreprocessImage(img, info)
}

// PreprocessImage runs the RGB conversion, resize and tensor packing steps
// on an already decoded image.
func PreprocessImage(img image.Image, info TensorInfo) (*tensor.Dense, error) {
	rgb, err := images.Resize(images.ToRGB(img), info.Width(), info.Height())
	if err != nil {
		return nil, errors.Wrap(err, "failed to resize image")
	}

	shape := info.TensorShape()
	w, h := info.Width(), info.Height()

	switch info.DataType {
	case Uint8:
		backing := make([]uint8, 0, w*h*3)
		for y := 0; y < h; y++ {
			row := rgb.Pix[y*rgb.Stride : y*rgb.Stride+w*4]
			for x := 0; x < w; x++ {
				backing = append(backing, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)), nil
	case Float32:
		backing := make([]float32, 0, w*h*3)
		for y := 0; y < h; y++ {
			row := rgb.Pix[y*rgb.Stride : y*rgb.Stride+w*4]
			for x := 0; x < w; x++ {
				backing = append(backing,
					float32(row[x*4])/255.0,
					float32(row[x*4+1])/255.0,
					float32(row[x*4+2])/255.0,
				)
			}
		}
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)), nil
	default:
		return nil, errors.Errorf("unsupported input type %q", info.DataType)
	}
}
