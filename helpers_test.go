package bblabel

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePNG writes a w x h gradient PNG to path.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// writeFile writes contents to path, creating parent directories.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

// newTree creates an input root with the category "cats" holding n PNG images img1.png..imgN.png
// and an empty output directory.
func newTree(t *testing.T, n int) (input, output string) {
	t.Helper()

	root := t.TempDir()
	input = filepath.Join(root, "images")
	output = filepath.Join(root, "labels")
	require.NoError(t, os.MkdirAll(filepath.Join(input, "cats"), 0755))
	require.NoError(t, os.Mkdir(output, 0755))

	for i := 1; i <= n; i++ {
		writePNG(t, filepath.Join(input, "cats", "img"+string(rune('0'+i))+".png"), 64, 48)
	}
	return input, output
}
