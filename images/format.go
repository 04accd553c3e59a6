package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
	FormatWebP ImageFormat = "webp"
)

var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".webp": FormatWebP,
}

// FormatFromPath maps a file name to the format its extension names.
//
// Arguments:
//   - path: The file path; the extension is matched case-insensitively.
//
// Returns:
//   - ImageFormat: The format, empty when unknown.
//   - bool: True if the extension is a supported image format.
func FormatFromPath(path string) (ImageFormat, bool) {
	format, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return format, ok
}
