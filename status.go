package bblabel

// CategoryStatus summarizes the annotation progress of a category.
type CategoryStatus struct {
	Name       string `yaml:"name"`
	Images     int    `yaml:"images"`
	Labeled    int    `yaml:"labeled"`              // Images with a label file.
	Boxes      int    `yaml:"boxes"`                // Boxes in all readable label files.
	Unreadable int    `yaml:"unreadable,omitempty"` // Label files in neither format.
	Error      string `yaml:"error,omitempty"`
}

// Summarize reports the progress of every category. Categories without images are reported with
// their error instead of failing the summary.
func Summarize(catalog *Catalog, labels LabelReadWriter) ([]CategoryStatus, error) {
	categories, err := catalog.Categories()
	if err != nil {
		return nil, err
	}

	report := make([]CategoryStatus, 0, len(categories))
	for _, name := range categories {
		st := CategoryStatus{Name: name}
		images, err := catalog.Images(name)
		if err != nil {
			st.Error = err.Error()
			report = append(report, st)
			continue
		}

		st.Images = len(images)
		for _, img := range images {
			path := labels.PathFor(img.Path)
			if !labels.Exists(path) {
				continue
			}
			st.Labeled++
			if boxes, err := labels.Read(path); err == nil {
				st.Boxes += len(boxes)
			} else {
				st.Unreadable++
			}
		}
		report = append(report, st)
	}

	return report, nil
}
