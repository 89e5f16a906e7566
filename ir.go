package bblabel

// The intermediate representation shared by the exporters and importers.

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Annotation is one labelled object.
type Annotation struct {
	Coords [4]float64 // Absolute x1, y1, x2, y2 offsets from the top-left corner.
	Label  string
}

// Width is the object width from a.Coords.
func (a Annotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords.
func (a Annotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// AnnotatedFile holds the annotations of one image.
type AnnotatedFile struct {
	Annotations []Annotation
	FilePath    string // The annotated image.
}

// Boxes rounds the annotation coordinates to pixel bounding boxes.
func (f AnnotatedFile) Boxes() []BoundingBox {
	boxes := make([]BoundingBox, len(f.Annotations))
	for i, a := range f.Annotations {
		boxes[i] = NewBoundingBox(int(math.Round(a.Coords[0])), int(math.Round(a.Coords[1])),
			int(math.Round(a.Coords[2])), int(math.Round(a.Coords[3])))
	}
	return boxes
}

// AnnotatedFiles is the annotation metadata for a list of images.
type AnnotatedFiles []AnnotatedFile

// CollectAnnotations reads the label files of images, labelling every box with label. Images
// without a label file are skipped, as are unreadable label files.
func CollectAnnotations(images []ImageEntry, labels LabelReadWriter, label string) AnnotatedFiles {
	data := make(AnnotatedFiles, 0, len(images))
	for _, img := range images {
		path := labels.PathFor(img.Path)
		if !labels.Exists(path) {
			continue
		}
		boxes, err := labels.Read(path)
		if err != nil {
			zap.L().Warn("Skipping unreadable label file", zap.String("labels", path), zap.Error(err))
			continue
		}

		f := AnnotatedFile{Annotations: make([]Annotation, len(boxes)), FilePath: img.Path}
		for i, b := range boxes {
			f.Annotations[i] = Annotation{
				Coords: [4]float64{float64(b.X1), float64(b.Y1), float64(b.X2), float64(b.Y2)},
				Label:  label,
			}
		}
		data = append(data, f)
	}

	zap.L().Info("Collected annotations", zap.Int("files", len(data)), zap.Int("images", len(images)))
	return data
}

// WriteLabels stores the annotations as label files for the matching images, matched by file name
// without extension. Annotations for unknown images are skipped. It returns the number of label
// files written and stops at the first write error.
func (data AnnotatedFiles) WriteLabels(images []ImageEntry, labels LabelReadWriter) (int, error) {
	paths := make([]string, len(images))
	for i, img := range images {
		paths[i] = img.Path
	}
	byStem := mapStemsToPaths(paths)

	written := 0
	for _, f := range data {
		imagePath, ok := byStem[stem(f.FilePath)]
		if !ok {
			zap.L().Warn("No matching image, skipping", zap.String("file", f.FilePath))
			continue
		}
		if err := labels.Write(labels.PathFor(imagePath), f.Boxes()); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

// ExportCrops writes one image per annotation to outDir, named after the source image with a
// "_xx" suffix where xx is the annotation index. The returned data describes the crops, each with
// a single annotation covering the whole crop.
func (data AnnotatedFiles) ExportCrops(outDir string, jpegQuality int) (AnnotatedFiles, error) {
	if len(data) == 0 {
		return nil, nil
	}

	// Limit the number of goroutines in flight, as they hold decoded images in memory.
	numTasks := min(2*runtime.NumCPU(), len(data))
	workQueue := make(chan *AnnotatedFile, 2*numTasks)
	cropped := make(chan AnnotatedFile, 2*numTasks)
	errs := make(chan error, 1)

	var wg sync.WaitGroup
	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		go func() {
			defer wg.Done()
			for f := range workQueue {
				if err := f.exportCrops(outDir, jpegQuality, cropped); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}()
	}

	var result AnnotatedFiles
	var wgCollect sync.WaitGroup
	wgCollect.Add(1)
	go func() {
		defer wgCollect.Done()
		for f := range cropped {
			result = append(result, f)
		}
	}()

	for i := range data {
		workQueue <- &data[i]
	}
	close(workQueue)
	wg.Wait()
	close(cropped)
	wgCollect.Wait()

	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].FilePath < result[j].FilePath })
	return result, nil
}

// exportCrops crops and saves the objects of a single image, sending their metadata to out.
func (f *AnnotatedFile) exportCrops(outDir string, jpegQuality int, out chan<- AnnotatedFile) error {
	img, err := loadImage(f.FilePath)
	if err != nil {
		return fmt.Errorf("cannot load %q: %w", f.FilePath, err)
	}

	ext := filepath.Ext(f.FilePath)
	for i, box := range f.Boxes() {
		crop, ok := cropBox(img, box)
		if !ok {
			continue
		}

		path := filepath.Join(outDir, fmt.Sprintf("%s_%02d%s", stem(f.FilePath), i, ext))
		if err := saveImage(path, crop, jpegQuality); err != nil {
			return fmt.Errorf("cannot save crop %q: %w", path, err)
		}

		bounds := crop.Bounds()
		out <- AnnotatedFile{
			Annotations: []Annotation{{
				Coords: [4]float64{0, 0, float64(bounds.Dx()), float64(bounds.Dy())},
				Label:  f.Annotations[i].Label,
			}},
			FilePath: path,
		}
	}

	return nil
}

// Format is a label format for import and export.
type Format int

// The known label formats.
const (
	Unknown Format = iota
	Kitti
	Sloth
	TFRecord
	VIA // VGG Image Annotator
)

// FormatFrom parses a format name as used on the command line.
func FormatFrom(s string) Format {
	switch s {
	case "kitti":
		return Kitti
	case "sloth":
		return Sloth
	case "tfrecord":
		return TFRecord
	case "via":
		return VIA
	}
	return Unknown
}

// ErrUnsupportedFormat is returned for formats that cannot be used in the requested direction.
var ErrUnsupportedFormat = errors.New("unsupported format")
