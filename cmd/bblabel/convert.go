package main

import (
	"fmt"
	"path/filepath"

	"github.com/sensorable/bblabel"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		category     string
		to           string
		outPath      string
		labelMapPath string
		numShards    int
		cropDir      string
		jpegQuality  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the label files of a category to another format",
		Long: `Converts the label files of a category to KITTI (a directory with one file per image), Sloth
or VIA (a JSON file), or TFRecord (a record file plus a label map). Every box is labelled with the
category name.

With --crop-objects every box is first cropped from its image into the given directory, and the
exported labels describe the crops.`,
		Example: `  bblabel export -i images -o labels --category cats --to via --out cats.json
  bblabel export -i images -o labels --category cats --to tfrecord --out cats.record --label-map map.pbtxt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := bblabel.FormatFrom(to)
			if format == bblabel.Unknown {
				return fmt.Errorf("%w %q", bblabel.ErrUnsupportedFormat, to)
			}
			if format == bblabel.Kitti && filepath.Clean(outPath) == a.labels.Dir() {
				return fmt.Errorf("the KITTI output directory cannot be the label directory")
			}
			if format == bblabel.TFRecord && labelMapPath == "" {
				return fmt.Errorf("missing --label-map for tfrecord output")
			}
			if jpegQuality < 1 || jpegQuality > 100 {
				return fmt.Errorf("invalid --jpeg-quality %d, must be in [1, 100]", jpegQuality)
			}

			images, err := a.catalog.Images(category)
			if err != nil {
				return err
			}
			data := bblabel.CollectAnnotations(images, a.labels, category)

			if cropDir != "" {
				if data, err = data.ExportCrops(cropDir, jpegQuality); err != nil {
					return fmt.Errorf("cropping objects failed: %w", err)
				}
			}

			switch format {
			case bblabel.Kitti:
				err = bblabel.WriteKitti(outPath, bblabel.ToKitti(data))
			case bblabel.Sloth:
				err = bblabel.WriteSloth(outPath, bblabel.ToSloth(data))
			case bblabel.TFRecord:
				err = bblabel.WriteTFRecord(outPath, labelMapPath, data, numShards)
			case bblabel.VIA:
				err = bblabel.WriteVIA(outPath, bblabel.ToVIA(data))
			}
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}

			a.log.Info("Labels exported", zap.Int("files", len(data)), zap.String("out", outPath))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&category, "category", "c", "", "Category to export")
	f.StringVar(&to, "to", "", "Target format {kitti, sloth, tfrecord, via}")
	f.StringVar(&outPath, "out", "", "Output file, or directory for kitti")
	f.StringVar(&labelMapPath, "label-map", "", "TFRecord label map output file")
	f.IntVar(&numShards, "num-shards", 1, "Number of TFRecord shard files")
	f.StringVar(&cropDir, "crop-objects", "", "Crop every box into this directory and export the crops")
	f.IntVar(&jpegQuality, "jpeg-quality", 90, "JPEG quality for crops [1, 100]")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var category, from, labelsPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Write label files for a category from KITTI, Sloth or VIA annotations",
		Long: `Reads KITTI (a directory with one file per image), Sloth or VIA (a JSON file) annotations and
writes a label file for every annotated image of the category, matched by file name. Existing label
files of these images are replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := a.catalog.Images(category)
			if err != nil {
				return err
			}

			var data bblabel.AnnotatedFiles
			switch bblabel.FormatFrom(from) {
			case bblabel.Kitti:
				if filepath.Clean(labelsPath) == a.labels.Dir() {
					return fmt.Errorf("the KITTI input directory cannot be the label directory")
				}
				data, err = bblabel.FromKitti(labelsPath, filepath.Join(a.catalog.Root(), category))
			case bblabel.Sloth:
				data, err = bblabel.FromSloth(labelsPath)
			case bblabel.VIA:
				data, err = bblabel.FromVIA(labelsPath)
			default:
				err = fmt.Errorf("%w %q", bblabel.ErrUnsupportedFormat, from)
			}
			if err != nil {
				return fmt.Errorf("failed to parse the input: %w", err)
			}

			written, err := data.WriteLabels(images, a.labels)
			a.log.Info("Labels imported", zap.Int("written", written), zap.Int("files", len(data)))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&category, "category", "c", "", "Category to import into")
	f.StringVar(&from, "from", "", "Source format {kitti, sloth, via}")
	f.StringVar(&labelsPath, "labels", "", "Input file, or directory for kitti")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("labels")

	return cmd
}
