// Package images - Decoding and pixel-level normalisation of uploaded images.
package images

import (
	"bytes"
	"image"
	"image/color"

	// Standard decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	// Extended decoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when bytes are not a recognised image format.
var ErrDecode = errors.New("image decode failed")

// MaxPixels caps the width*height of an image Decode will allocate.
const MaxPixels = 89478485

// Inspect reads an image header without decoding the pixel data.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - image.Config: The dimensions and colour model.
//   - ImageFormat: The detected format.
//   - error: An error wrapping ErrDecode if the header is unreadable or the
//     image is empty or larger than MaxPixels.
func Inspect(data []byte) (image.Config, ImageFormat, error) {
	if len(data) == 0 {
		return image.Config{}, "", errors.Wrap(ErrDecode, "image data is empty")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", errors.Wrapf(ErrDecode, "%v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, "", errors.Wrapf(ErrDecode, "image has no pixels: %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return image.Config{}, "", errors.Wrapf(ErrDecode, "image is %dx%d, exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}
	return cfg, ImageFormat(format), nil
}

// Decode decodes raw image bytes of any registered format.
//
// The header is checked with Inspect first so oversized images are rejected
// before any pixel buffer is allocated.
//
// Arguments:
//   - data: The encoded image.
//
// Returns:
//   - image.Image: The decoded image.
//   - ImageFormat: The detected format.
//   - error: An error wrapping ErrDecode if the bytes are empty, unrecognised
//     or exceed MaxPixels.
func Decode(data []byte) (image.Image, ImageFormat, error) {
	if _, _, err := Inspect(data); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrapf(ErrDecode, "%v", err)
	}
	return img, ImageFormat(format), nil
}

// ToRGB converts any image to an opaque *image.RGBA anchored at the origin.
//
// Alpha is discarded rather than composited, so transparent pixels keep their
// straight (non-premultiplied) colour. An opaque *image.RGBA anchored at the
// origin is returned unchanged.
//
// Arguments:
//   - img: The image to convert.
//
// Returns:
//   - *image.RGBA: The 3-channel colour image.
func ToRGB(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Opaque() {
		return rgba
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := dst.PixOffset(x-bounds.Min.X, y-bounds.Min.Y)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

// Resize scales an RGB image to exactly width x height with bicubic
// interpolation, ignoring aspect ratio.
//
// An image that already has the requested size is returned unchanged.
//
// Arguments:
//   - img: The opaque source image.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - *image.RGBA: The resized image.
//   - error: An error if the target size is not positive.
func Resize(img *image.RGBA, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("source image is empty")
	}
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img, nil
	}

	resized := resize.Resize(uint(width), uint(height), img, resize.Bicubic)
	if rgba, ok := resized.(*image.RGBA); ok {
		return rgba, nil
	}
	return ToRGB(resized), nil
}
