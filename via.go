package bblabel

// VGG Image Annotator (VIA) specific functionality.

import (
	"fmt"
	"os"
	"sort"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// VIAShape describes the shape of an annotation.
type VIAShape struct {
	Name   string `json:"name"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  int32  `json:"width"`
	Height int32  `json:"height"`
}

// VIARegionAnnotation is a single region annotation for a particular image in a VIA file.
type VIARegionAnnotation struct {
	Attributes map[string]string `json:"region_attributes"`
	Shape      VIAShape          `json:"shape_attributes"`
}

// VIAAnnotatedFile defines the VIA annotation structure for a single file.
type VIAAnnotatedFile struct {
	Annotations []VIARegionAnnotation `json:"regions"`
	Attributes  map[string]string     `json:"file_attributes"`
	FilePath    string                `json:"filename"`
	Size        int64                 `json:"size"`
}

// VIAOptionsAttribute defines attributes of type "radio" or "dropdown".
type VIAOptionsAttribute struct {
	Type           string            `json:"type"`
	Description    string            `json:"description"`
	Options        map[string]string `json:"options"`
	DefaultOptions map[string]bool   `json:"default_options"`
}

// VIAAttributes defines the VIA attribute metadata.
type VIAAttributes struct {
	Region map[string]VIAOptionsAttribute `json:"region"`
	File   map[string]VIAOptionsAttribute `json:"file"`
}

// VIAProject defines the VIA project structure.
type VIAProject struct {
	Attributes    VIAAttributes               `json:"_via_attributes"`
	ImageMetadata map[string]VIAAnnotatedFile `json:"_via_img_metadata"`
	// Must exist for VIA to load the project. Default values will be used.
	Settings struct{} `json:"_via_settings"`
}

const viaLabelAttribute = "Label" // The attribute key used for labels.

// FromVIA reads and parses VIA annotations from the file at path. Only rectangular regions are
// converted. The result is ordered by file name.
func FromVIA(path string) (AnnotatedFiles, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var project VIAProject
	if err := sonic.Unmarshal(enc, &project); err != nil {
		return nil, fmt.Errorf("failed to parse VIA input from %q: %w", path, err)
	}

	data := make(AnnotatedFiles, 0, len(project.ImageMetadata))
	for _, vf := range project.ImageMetadata {
		f := AnnotatedFile{
			Annotations: make([]Annotation, 0, len(vf.Annotations)),
			FilePath:    vf.FilePath,
		}
		for _, a := range vf.Annotations {
			if a.Shape.Name != "rect" {
				zap.L().Debug("Skipping non-rectangular region", zap.String("file", vf.FilePath),
					zap.String("shape", a.Shape.Name))
				continue
			}
			f.Annotations = append(f.Annotations, Annotation{
				Coords: [4]float64{
					float64(a.Shape.X),
					float64(a.Shape.Y),
					float64(a.Shape.X + a.Shape.Width),
					float64(a.Shape.Y + a.Shape.Height),
				},
				Label: a.Attributes[viaLabelAttribute],
			})
		}
		data = append(data, f)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].FilePath < data[j].FilePath })

	return data, nil
}

// ToVIA converts the intermediate representation to a VIA project.
func ToVIA(data AnnotatedFiles) VIAProject {
	project := VIAProject{
		Attributes: VIAAttributes{
			Region: make(map[string]VIAOptionsAttribute),
			File:   make(map[string]VIAOptionsAttribute),
		},
		ImageMetadata: make(map[string]VIAAnnotatedFile, len(data)),
	}

	labelAttr := VIAOptionsAttribute{
		Type:           "radio",
		Options:        make(map[string]string),
		DefaultOptions: make(map[string]bool),
	}

	for _, f := range data {
		vf := VIAAnnotatedFile{
			Annotations: make([]VIARegionAnnotation, 0, len(f.Annotations)),
			Attributes:  make(map[string]string), // Must not be nil as that becomes JSON null.
			FilePath:    f.FilePath,
		}
		if info, err := os.Stat(f.FilePath); err == nil {
			vf.Size = info.Size()
		}

		for _, a := range f.Annotations {
			vf.Annotations = append(vf.Annotations, VIARegionAnnotation{
				Attributes: map[string]string{viaLabelAttribute: a.Label},
				Shape: VIAShape{
					Name:   "rect",
					X:      int32(a.Coords[0]),
					Y:      int32(a.Coords[1]),
					Width:  int32(a.Width()),
					Height: int32(a.Height()),
				},
			})
			labelAttr.Options[a.Label] = ""
		}
		project.ImageMetadata[vf.FilePath] = vf
	}

	if len(labelAttr.Options) > 0 {
		project.Attributes.Region[viaLabelAttribute] = labelAttr
	}

	return project
}

// WriteVIA writes the VIA project data to outFile.
func WriteVIA(outFile string, project VIAProject) error {
	enc, err := sonic.MarshalIndent(project, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", outFile, err)
	}
	return nil
}
