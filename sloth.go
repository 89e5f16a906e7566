package bblabel

// Sloth specific functionality.

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
)

// SlothAnnotation is a single annotation within a Sloth file.
type SlothAnnotation struct {
	Class  string  `json:"class,omitempty"`
	Type   string  `json:"type,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SlothAnnotatedFile defines the Sloth annotation structure for a single file.
type SlothAnnotatedFile struct {
	Annotations []SlothAnnotation `json:"annotations"`
	Class       string            `json:"class,omitempty"`
	FilePath    string            `json:"filename,omitempty"`
}

// FromSloth reads and parses Sloth annotations from the file at path.
func FromSloth(path string) (AnnotatedFiles, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var slothData []SlothAnnotatedFile
	if err := sonic.Unmarshal(enc, &slothData); err != nil {
		return nil, fmt.Errorf("failed to parse Sloth input from %q: %w", path, err)
	}

	data := make(AnnotatedFiles, 0, len(slothData))
	for _, sf := range slothData {
		f := AnnotatedFile{
			Annotations: make([]Annotation, 0, len(sf.Annotations)),
			FilePath:    sf.FilePath,
		}
		for _, a := range sf.Annotations {
			if a.Type != "" && a.Type != "rect" {
				continue
			}
			f.Annotations = append(f.Annotations, Annotation{
				Coords: [4]float64{a.X, a.Y, a.X + a.Width, a.Y + a.Height},
				Label:  a.Class,
			})
		}
		data = append(data, f)
	}

	return data, nil
}

// ToSloth converts the intermediate representation to Sloth format.
func ToSloth(data AnnotatedFiles) []SlothAnnotatedFile {
	slothData := make([]SlothAnnotatedFile, 0, len(data))
	for _, f := range data {
		sf := SlothAnnotatedFile{
			Annotations: make([]SlothAnnotation, len(f.Annotations)),
			Class:       "image",
			FilePath:    f.FilePath,
		}
		for i, a := range f.Annotations {
			sf.Annotations[i] = SlothAnnotation{
				Class:  a.Label,
				Type:   "rect",
				X:      a.Coords[0],
				Y:      a.Coords[1],
				Width:  a.Width(),
				Height: a.Height(),
			}
		}
		slothData = append(slothData, sf)
	}

	return slothData
}

// WriteSloth writes the Sloth annotations to outFile.
func WriteSloth(outFile string, data []SlothAnnotatedFile) error {
	enc, err := sonic.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFile, enc, 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %w", outFile, err)
	}
	return nil
}
