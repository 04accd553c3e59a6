package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/care-symbols/images"
)

func TestLoadDirectoryImages(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"b-tumble.PNG":  "png",
		"a-iron.jpg":    "jpg",
		"c-bleach.webp": "webp",
		"notes.txt":     "skip",
		"model.onnx":    "skip",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o700))

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a-iron.jpg"), files[0].Path)
	assert.Equal(t, []byte("jpg"), files[0].Data)
	assert.Equal(t, filepath.Join(dir, "b-tumble.PNG"), files[1].Path)
	assert.Equal(t, filepath.Join(dir, "c-bleach.webp"), files[2].Path)

	formats := make([]images.ImageFormat, len(files))
	for i, img := range files {
		formats[i] = img.Format
	}
	assert.Equal(t, []images.ImageFormat{images.FormatJPEG, images.FormatPNG, images.FormatWebP}, formats)
}

func TestLoadDirectoryImagesMissingDir(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
