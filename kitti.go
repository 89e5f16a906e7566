package bblabel

// KITTI specific functionality.

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// KITTIAnnotation is a single annotation within a KITTI file.
type KITTIAnnotation struct {
	Coords [4]float64 // x1, y1, x2, y2
	Label  string
}

// KITTIAnnotatedFile defines the KITTI annotation structure for a single file.
type KITTIAnnotatedFile struct {
	Annotations []KITTIAnnotation
	FilePath    string
}

// FromKitti reads the KITTI label files in labelDir and pairs them by file name with the supported
// images in imageDir. Label files without an image and unparsable lines are skipped.
func FromKitti(labelDir, imageDir string) (AnnotatedFiles, error) {
	labelFiles, err := filesInDir(labelDir, hasExt(LabelFileExt))
	if err != nil {
		return nil, err
	}
	imageFiles, err := filesInDir(imageDir, isSupportedImage)
	if err != nil {
		return nil, err
	}
	imagesByStem := mapStemsToPaths(imageFiles)
	zap.L().Info("Parsing KITTI labels", zap.Int("files", len(labelFiles)))

	data := make(AnnotatedFiles, 0, len(labelFiles))
	for _, path := range labelFiles {
		imagePath, found := imagesByStem[stem(path)]
		if !found {
			zap.L().Warn("No corresponding image file, skipping", zap.String("labels", path))
			continue
		}

		lines, err := readLines(path)
		if err != nil {
			zap.L().Warn("Error while parsing, skipping", zap.String("labels", path), zap.Error(err))
			continue
		}

		f := AnnotatedFile{Annotations: make([]Annotation, 0, len(lines)), FilePath: imagePath}
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			a, err := parseKittiAnnotation(line)
			if err != nil {
				zap.L().Warn("Skipping KITTI line", zap.String("labels", path), zap.Error(err))
				continue
			}
			f.Annotations = append(f.Annotations, Annotation{Coords: a.Coords, Label: a.Label})
		}
		data = append(data, f)
	}

	return data, nil
}

// parseKittiAnnotation parses the label and 2D bounding box from a KITTI line. The other fields
// are ignored.
func parseKittiAnnotation(line string) (KITTIAnnotation, error) {
	a := KITTIAnnotation{}

	tokens := strings.Fields(line)
	if len(tokens) < 8 {
		return a, fmt.Errorf("insufficient tokens in %q", line)
	}

	a.Label = tokens[0]
	for i := 4; i < 8; i++ {
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return a, fmt.Errorf("unexpected values in %q: %w", line, err)
		}
		a.Coords[i-4] = v
	}

	return a, nil
}

// ToKitti converts the intermediate representation to KITTI format.
func ToKitti(data AnnotatedFiles) []KITTIAnnotatedFile {
	kittiData := make([]KITTIAnnotatedFile, 0, len(data))
	for _, f := range data {
		kf := KITTIAnnotatedFile{
			Annotations: make([]KITTIAnnotation, len(f.Annotations)),
			FilePath:    f.FilePath,
		}
		for i, a := range f.Annotations {
			kf.Annotations[i] = KITTIAnnotation{Coords: a.Coords, Label: a.Label}
		}
		kittiData = append(kittiData, kf)
	}

	return kittiData
}

// WriteKitti writes data to dirPath, one file per image, named after the image.
func WriteKitti(dirPath string, data []KITTIAnnotatedFile) error {
	if info, err := os.Stat(dirPath); err != nil || !info.IsDir() {
		return fmt.Errorf("cannot access directory %q: %v", dirPath, err)
	}

	for _, kf := range data {
		if err := writeKittiFile(filepath.Join(dirPath, stem(kf.FilePath)+LabelFileExt), kf); err != nil {
			return err
		}
	}

	return nil
}

func writeKittiFile(path string, kf KITTIAnnotatedFile) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(file, &err)

	for _, a := range kf.Annotations {
		// Only the label and the 2D box are known, the 3D fields are zero.
		_, err = fmt.Fprintf(file, "%s 0.00 0 0.00 %.2f %.2f %.2f %.2f 0.00 0.00 0.00 0.00 0.00 0.00 0.00\n",
			a.Label, a.Coords[0], a.Coords[1], a.Coords[2], a.Coords[3])
		if err != nil {
			return err
		}
	}

	return nil
}
