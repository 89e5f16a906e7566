package bblabel

// The annotation session: box list, pointer state machine and image navigation.

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoSession means a command needs a loaded category.
var ErrNoSession = errors.New("no category loaded")

// ErrIndexOutOfRange means an image index is outside [1, total].
var ErrIndexOutOfRange = errors.New("image index out of range")

// ClickState is the pointer interaction state: Idle or Anchored.
type ClickState interface {
	isClickState()
}

// Idle means no corner has been placed.
type Idle struct{}

// Anchored holds the first corner of the box being drawn.
type Anchored struct {
	X, Y int
}

func (Idle) isClickState()     {}
func (Anchored) isClickState() {}

// ImageLister enumerates the images of a category.
type ImageLister interface {
	Images(category string) ([]ImageEntry, error)
}

// LabelReadWriter persists the boxes of one image.
type LabelReadWriter interface {
	PathFor(imagePath string) string
	Exists(path string) bool
	Read(path string) ([]BoundingBox, error)
	Write(path string, boxes []BoundingBox) error
}

// Session is the annotation state of one annotator. It is not safe for concurrent use; commands are
// expected to arrive one UI event at a time.
type Session struct {
	images ImageLister
	labels LabelReadWriter
	log    *zap.Logger

	category  string
	entries   []ImageEntry
	cur       int // 1-based, 0 before a category is loaded.
	labelPath string
	width     int
	height    int

	boxes []BoundingBox
	click ClickState

	cursorX, cursorY int
	haveCursor       bool
}

// NewSession returns a session without a loaded category. A nil logger disables logging.
func NewSession(images ImageLister, labels LabelReadWriter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		images: images,
		labels: labels,
		log:    logger,
		click:  Idle{},
	}
}

// LoadCategory enumerates the images of category and loads the first one. The current image, if
// any, is saved first. If the category has no images the session is left as it was and an error
// wrapping ErrNoImages is returned.
func (s *Session) LoadCategory(category string) error {
	entries, err := s.images.Images(category)
	if err != nil {
		return err
	}

	if s.Started() {
		if err := s.SaveCurrent(); err != nil {
			return err
		}
	}

	s.category = category
	s.entries = entries
	s.loadImage(1)
	s.log.Info("Images loaded", zap.Int("count", len(entries)), zap.String("category", category))

	return nil
}

// Started reports whether a category is loaded.
func (s *Session) Started() bool {
	return s.cur > 0
}

// PointerDown handles a click at (x, y). The first click anchors a corner, the second commits the
// box spanned by both corners and returns it with true.
func (s *Session) PointerDown(x, y int) (BoundingBox, bool) {
	if !s.Started() {
		return BoundingBox{}, false
	}
	s.cursorX, s.cursorY, s.haveCursor = x, y, true

	switch st := s.click.(type) {
	case Anchored:
		b := NewBoundingBox(st.X, st.Y, x, y)
		s.boxes = append(s.boxes, b)
		s.click = Idle{}
		return b, true
	default:
		s.click = Anchored{X: x, Y: y}
		return BoundingBox{}, false
	}
}

// PointerMove records the pointer position for the crosshair and the preview rectangle.
func (s *Session) PointerMove(x, y int) {
	s.cursorX, s.cursorY, s.haveCursor = x, y, true
}

// Cancel discards an anchored corner. It reports whether there was one.
func (s *Session) Cancel() bool {
	if _, ok := s.click.(Anchored); !ok {
		return false
	}
	s.click = Idle{}
	return true
}

// DeleteBox removes the box at index. Indices outside the box list, including the -1 used for "no
// selection", are ignored and false is returned.
func (s *Session) DeleteBox(index int) bool {
	if index < 0 || index >= len(s.boxes) {
		return false
	}
	s.boxes = append(s.boxes[:index], s.boxes[index+1:]...)
	s.click = Idle{}
	return true
}

// ClearBoxes removes all boxes and any anchored corner.
func (s *Session) ClearBoxes() {
	s.boxes = nil
	s.click = Idle{}
}

// SaveCurrent writes the box list of the current image to its label file. Saving twice without a
// change in between produces identical files.
func (s *Session) SaveCurrent() error {
	if !s.Started() {
		return ErrNoSession
	}
	if err := s.labels.Write(s.labelPath, s.boxes); err != nil {
		return err
	}
	s.log.Info("Image saved", zap.Int("index", s.cur), zap.String("labels", s.labelPath))
	return nil
}

// LoadImage makes the image at the 1-based index current without saving the previous one. Its
// boxes are read from the label file if one exists; an unreadable label file yields no boxes.
func (s *Session) LoadImage(index int) error {
	if !s.Started() {
		return ErrNoSession
	}
	if index < 1 || index > len(s.entries) {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrIndexOutOfRange, index, len(s.entries))
	}
	s.loadImage(index)
	return nil
}

func (s *Session) loadImage(index int) {
	s.cur = index
	s.boxes = nil
	s.click = Idle{}

	path := s.entries[index-1].Path
	s.labelPath = s.labels.PathFor(path)

	s.width, s.height = 0, 0
	if cfg, _, err := decodeImageConfig(path); err == nil {
		s.width, s.height = cfg.Width, cfg.Height
	} else {
		s.log.Debug("Cannot decode image size", zap.String("image", path), zap.Error(err))
	}

	if !s.labels.Exists(s.labelPath) {
		return
	}
	boxes, err := s.labels.Read(s.labelPath)
	if err != nil {
		s.log.Debug("Ignoring unreadable label file", zap.String("labels", s.labelPath),
			zap.Error(err))
		return
	}
	s.boxes = boxes
}

// Prev saves the current image and moves to the previous one. At the first image only the save
// happens.
func (s *Session) Prev() error {
	return s.step(-1)
}

// Next saves the current image and moves to the next one. At the last image only the save happens.
func (s *Session) Next() error {
	return s.step(1)
}

func (s *Session) step(delta int) error {
	if err := s.SaveCurrent(); err != nil {
		return err
	}
	if next := s.cur + delta; next >= 1 && next <= len(s.entries) {
		s.loadImage(next)
	}
	return nil
}

// Goto saves the current image and loads the image at the 1-based index. An index outside
// [1, total] is ignored without saving, and false is returned.
func (s *Session) Goto(index int) (bool, error) {
	if !s.Started() {
		return false, ErrNoSession
	}
	if index < 1 || index > len(s.entries) {
		return false, nil
	}
	if err := s.SaveCurrent(); err != nil {
		return false, err
	}
	s.loadImage(index)
	return true, nil
}

// Close flushes the current image to disk.
func (s *Session) Close() error {
	if !s.Started() {
		return nil
	}
	return s.SaveCurrent()
}

// Boxes returns a copy of the current box list.
func (s *Session) Boxes() []BoundingBox {
	return append([]BoundingBox(nil), s.boxes...)
}

// State returns the pointer interaction state.
func (s *Session) State() ClickState {
	return s.click
}

// PreviewRect returns the rectangle between the anchored corner and the last pointer position.
// It is false when no corner is anchored.
func (s *Session) PreviewRect() (BoundingBox, bool) {
	a, ok := s.click.(Anchored)
	if !ok {
		return BoundingBox{}, false
	}
	return NewBoundingBox(a.X, a.Y, s.cursorX, s.cursorY), true
}

// Crosshair returns the last pointer position, if there was one.
func (s *Session) Crosshair() (x, y int, ok bool) {
	return s.cursorX, s.cursorY, s.haveCursor
}

// Progress returns the 1-based index of the current image and the number of images.
func (s *Session) Progress() (cur, total int) {
	return s.cur, len(s.entries)
}

// Category returns the loaded category.
func (s *Session) Category() string {
	return s.category
}

// ImagePath returns the path of the current image.
func (s *Session) ImagePath() string {
	if !s.Started() {
		return ""
	}
	return s.entries[s.cur-1].Path
}

// LabelPath returns the label file path of the current image.
func (s *Session) LabelPath() string {
	return s.labelPath
}

// ImageSize returns the pixel dimensions of the current image, or zeros if it cannot be decoded.
func (s *Session) ImageSize() (width, height int) {
	return s.width, s.height
}
