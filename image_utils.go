package bblabel

import (
	"image"
	_ "image/jpeg" // Register the decoders for the supported formats.
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
)

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path.
func loadImage(path string) (image.Image, error) {
	return imaging.Open(path)
}

// saveImage saves img to path, encoding it as PNG or JPEG depending on the file extension.
func saveImage(path string, img image.Image, jpegQuality int) error {
	return imaging.Save(img, path, imaging.JPEGQuality(jpegQuality))
}

// cropBox returns the part of img covered by b, clipped to the image bounds. It is false if the
// box lies entirely outside the image or has no area.
func cropBox(img image.Image, b BoundingBox) (image.Image, bool) {
	r := image.Rect(b.X1, b.Y1, b.X2, b.Y2).Intersect(img.Bounds())
	if r.Empty() {
		return nil, false
	}
	return imaging.Crop(img, r), true
}
