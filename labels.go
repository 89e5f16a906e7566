package bblabel

// Label file persistence.
//
// The canonical format written for every image is
//
//	<N>
//	<x1> <y1> <x2> <y2>
//	... (N lines)
//
// Reading additionally accepts the legacy JSON document described in legacy.go. That format is
// never written.

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LabelFileExt is the extension of label files.
const LabelFileExt = ".txt"

// ErrMalformedLabels means a label file exists but matches neither the canonical nor the legacy
// format.
var ErrMalformedLabels = errors.New("malformed label file")

// WriteError is returned when a label file cannot be written. Unlike ErrMalformedLabels it is never
// swallowed: the boxes in memory have not been persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write label file %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// LabelStore reads and writes the label files in an output directory, one file per image.
type LabelStore struct {
	dir string
}

// NewLabelStore returns a LabelStore writing to outputRoot.
func NewLabelStore(outputRoot string) *LabelStore {
	return &LabelStore{dir: outputRoot}
}

// Dir returns the output directory.
func (s *LabelStore) Dir() string {
	return s.dir
}

// PathFor returns the label file path for the image at imagePath: the image file name without
// extension, plus LabelFileExt, in the output directory.
func (s *LabelStore) PathFor(imagePath string) string {
	return filepath.Join(s.dir, stem(imagePath)+LabelFileExt)
}

// Exists reports whether a label file exists at path.
func (s *LabelStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Read parses the label file at path in either the canonical or the legacy format. On failure no
// boxes are returned.
func (s *LabelStore) Read(path string) ([]BoundingBox, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read label file %q: %w", path, err)
	}

	boxes, err := ParseLabels(data)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	return boxes, nil
}

// Write replaces the label file at path with the canonical encoding of boxes. Errors are of type
// *WriteError.
func (s *LabelStore) Write(path string, boxes []BoundingBox) error {
	if err := os.WriteFile(path, MarshalLabels(boxes), 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// MarshalLabels encodes boxes in the canonical format, preserving their order.
func MarshalLabels(boxes []BoundingBox) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d\n", len(boxes))
	for _, b := range boxes {
		fmt.Fprintf(&buf, "%d %d %d %d\n", b.X1, b.Y1, b.X2, b.Y2)
	}
	return buf.Bytes()
}

// ParseLabels decodes label file contents. A document starting with '{' is parsed as the legacy
// format, anything else as the canonical format. Errors wrap ErrMalformedLabels.
func ParseLabels(data []byte) ([]BoundingBox, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return parseLegacyLabels(trimmed)
	}
	return parseCanonicalLabels(string(data))
}

// parseCanonicalLabels parses the count line and exactly that many box lines. Trailing blank lines
// are allowed, anything else after the boxes is not.
func parseCanonicalLabels(text string) ([]BoundingBox, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	count, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: invalid box count %q", ErrMalformedLabels, lines[0])
	}
	if len(lines)-1 < count {
		return nil, fmt.Errorf("%w: expected %d boxes, found %d lines", ErrMalformedLabels, count,
			len(lines)-1)
	}

	boxes := make([]BoundingBox, 0, count)
	for _, line := range lines[1 : 1+count] {
		b, err := parseCanonicalBox(line)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}

	for _, line := range lines[1+count:] {
		if strings.TrimSpace(line) != "" {
			return nil, fmt.Errorf("%w: unexpected content after %d boxes: %q", ErrMalformedLabels,
				count, line)
		}
	}

	return boxes, nil
}

// parseCanonicalBox parses a single "x1 y1 x2 y2" line.
func parseCanonicalBox(line string) (BoundingBox, error) {
	tokens := strings.Fields(line)
	if len(tokens) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: expected 4 coordinates in %q", ErrMalformedLabels, line)
	}

	var c [4]int
	for i, t := range tokens {
		v, err := strconv.Atoi(t)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: unexpected value in %q: %v", ErrMalformedLabels,
				line, err)
		}
		c[i] = v
	}

	return NewBoundingBox(c[0], c[1], c[2], c[3]), nil
}
