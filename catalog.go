package bblabel

// Category and image enumeration.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// SupportedFormats lists the image file extensions (without the dot) that are annotated.
var SupportedFormats = []string{"png", "jpg", "jpeg"}

// supportedPattern matches file names with one of the SupportedFormats extensions. Matching is
// case sensitive.
const supportedPattern = "*.{png,jpg,jpeg}"

var (
	// ErrNoCategories means the input root has no category sub-directories. Nothing can be
	// annotated in that case.
	ErrNoCategories = errors.New("no categories found")
	// ErrNoImages means a category holds no image with a supported format.
	ErrNoImages = errors.New("no images found")
	// ErrUnknownCategory means the category directory does not exist.
	ErrUnknownCategory = errors.New("unknown category")
)

// ImageEntry is one annotatable image of a category.
type ImageEntry struct {
	Path     string // Absolute path of the image file.
	Position int    // 1-based position in the category's image list.
}

// Catalog enumerates the categories below an input root and the images within them.
type Catalog struct {
	root string
}

// NewCatalog returns a Catalog for the input root directory.
func NewCatalog(inputRoot string) *Catalog {
	return &Catalog{root: inputRoot}
}

// Root returns the input root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Categories returns the sorted names of all sub-directories of the input root. It returns
// ErrNoCategories if there are none.
func (c *Catalog) Categories() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("cannot read input directory %q: %w", c.root, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("the input folder %q must contain sub-folders with images: %w",
			c.root, ErrNoCategories)
	}
	sort.Strings(names)

	return names, nil
}

// Images returns the images of category in file name order. It returns ErrNoImages if the category
// holds no file with a supported extension.
func (c *Catalog) Images(category string) ([]ImageEntry, error) {
	dir, err := filepath.Abs(filepath.Join(c.root, category))
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w %q", ErrUnknownCategory, category)
	}

	paths, err := filesInDir(dir, isSupportedImage)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w for the category %q, supported formats are %v",
			ErrNoImages, category, SupportedFormats)
	}

	images := make([]ImageEntry, len(paths))
	for i, p := range paths {
		images[i] = ImageEntry{Path: p, Position: i + 1}
	}

	return images, nil
}

// isSupportedImage reports whether the file name carries one of the SupportedFormats extensions.
func isSupportedImage(name string) bool {
	ok, err := doublestar.Match(supportedPattern, name)
	return err == nil && ok
}
