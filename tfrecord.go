package bblabel

// TFRecord object detection specific functionality.

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	tensorflow "github.com/ryszard/tfutils/proto/tensorflow/core/example"
	"go.uber.org/zap"
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// newTFLabelMap assigns IDs starting at 1 to the labels in data, in label order.
func newTFLabelMap(data AnnotatedFiles) map[string]int32 {
	seen := make(map[string]bool)
	var names []string
	for _, f := range data {
		for _, a := range f.Annotations {
			if !seen[a.Label] {
				seen[a.Label] = true
				names = append(names, a.Label)
			}
		}
	}
	sort.Strings(names)

	labelMap := make(map[string]int32, len(names))
	for i, name := range names {
		labelMap[name] = int32(i + 1)
	}
	return labelMap
}

// toTFRecord builds the object detection features of a single image. Coordinates are normalised
// by the image size.
func toTFRecord(f AnnotatedFile, labelMap map[string]int32) (TFFeatureMap, error) {
	img, format, err := decodeImageConfig(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the image metadata: %w", err)
	}
	imgData, err := os.ReadFile(f.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the image: %w", err)
	}

	features := make(TFFeatureMap, 16)
	features["image/height"] = img.Height
	features["image/width"] = img.Width
	features["image/filename"] = f.FilePath
	features["image/source_id"] = f.FilePath
	features["image/encoded"] = imgData
	features["image/format"] = format

	n := len(f.Annotations)
	xmins := make([]float32, n)
	ymins := make([]float32, n)
	xmaxs := make([]float32, n)
	ymaxs := make([]float32, n)
	classes := make([]string, n)
	classIDs := make([]int64, n)
	for i, a := range f.Annotations {
		xmins[i] = float32(a.Coords[0]) / float32(img.Width)
		ymins[i] = float32(a.Coords[1]) / float32(img.Height)
		xmaxs[i] = float32(a.Coords[2]) / float32(img.Width)
		ymaxs[i] = float32(a.Coords[3]) / float32(img.Height)
		classes[i] = a.Label
		classIDs[i] = int64(labelMap[a.Label])
	}
	features["image/object/bbox/xmin"] = xmins
	features["image/object/bbox/ymin"] = ymins
	features["image/object/bbox/xmax"] = xmaxs
	features["image/object/bbox/ymax"] = ymaxs
	features["image/object/class/text"] = classes
	features["image/object/class/label"] = classIDs

	return features, nil
}

// WriteTFRecord converts data to tensorflow.Example records and writes them to one or more
// TFRecord files at recordFilePath (with "-xxxxx-of-xxxxx" suffixes when numShards > 1). The label
// map is written to labelMapPath in prototxt format.
func WriteTFRecord(recordFilePath, labelMapPath string, data AnnotatedFiles, numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}
	labelMap := newTFLabelMap(data)

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()

	shardSize := max(1, int(math.Ceil(float64(len(data))/float64(numShards))))
	shardIdx := -1
	for i, f := range data {
		if i%shardSize == 0 {
			shardIdx++
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return err
				}
				shardFile = nil
			}

			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmt.Sprintf("-%05d-of-%05d", shardIdx, numShards)
			}
			if shardFile, err = os.Create(shardPath); err != nil {
				return fmt.Errorf("failed to create shard at %q: %w", shardPath, err)
			}
		}

		features, err := toTFRecord(f, labelMap)
		if err != nil {
			zap.L().Warn("Failed to convert", zap.String("image", f.FilePath), zap.Error(err))
			continue
		}
		if err := writeTFRecordExample(shardFile, example.New(features)); err != nil {
			return fmt.Errorf("failed to write example for %q: %w", f.FilePath, err)
		}
	}

	return saveTFRecordLabelMap(labelMapPath, labelMap)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes labelMap as a StringIntLabelMap prototxt, ordered by ID.
func saveTFRecordLabelMap(path string, labelMap map[string]int32) (err error) {
	names := make([]string, 0, len(labelMap))
	for name := range labelMap {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return labelMap[names[i]] < labelMap[names[j]] })

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for _, name := range names {
		fmt.Fprintf(w, "item {\n  name: %q\n  id: %d\n}\n", name, labelMap[name])
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write the label map %q: %w", path, err)
	}

	return nil
}
