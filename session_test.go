package bblabel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// newStartedSession returns a session over n images with the "cats" category loaded.
func newStartedSession(t *testing.T, n int) (*Session, *LabelStore) {
	t.Helper()

	input, output := newTree(t, n)
	store := NewLabelStore(output)
	s := NewSession(NewCatalog(input), store, zaptest.NewLogger(t))
	require.NoError(t, s.LoadCategory("cats"))
	return s, store
}

func readLabelFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestLoadCategory(t *testing.T) {
	s, store := newStartedSession(t, 3)

	cur, total := s.Progress()
	assert.Equal(t, 1, cur)
	assert.Equal(t, 3, total)
	assert.Equal(t, "cats", s.Category())
	assert.Equal(t, "img1.png", filepath.Base(s.ImagePath()))
	assert.Equal(t, store.PathFor(s.ImagePath()), s.LabelPath())
	assert.Empty(t, s.Boxes())
	assert.Equal(t, Idle{}, s.State())

	w, h := s.ImageSize()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
}

func TestLoadCategoryWithoutImagesKeepsSession(t *testing.T) {
	s, _ := newStartedSession(t, 2)
	input := filepath.Dir(filepath.Dir(s.ImagePath()))
	require.NoError(t, os.Mkdir(filepath.Join(input, "dogs"), 0755))
	require.NoError(t, s.Next())

	err := s.LoadCategory("dogs")
	assert.ErrorIs(t, err, ErrNoImages)
	assert.Equal(t, "cats", s.Category())
	cur, total := s.Progress()
	assert.Equal(t, 2, cur)
	assert.Equal(t, 2, total)
}

func TestCommandsBeforeCategory(t *testing.T) {
	input, output := newTree(t, 1)
	s := NewSession(NewCatalog(input), NewLabelStore(output), nil)

	assert.False(t, s.Started())
	_, committed := s.PointerDown(1, 1)
	assert.False(t, committed)
	assert.Equal(t, Idle{}, s.State())
	assert.ErrorIs(t, s.SaveCurrent(), ErrNoSession)
	assert.ErrorIs(t, s.Next(), ErrNoSession)
	_, err := s.Goto(1)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, s.Close())
}

func TestPointerDownCommitsNormalizedBox(t *testing.T) {
	tests := []struct {
		name           string
		ax, ay, bx, by int
	}{
		{"down-right", 10, 10, 50, 50},
		{"down-left", 50, 10, 10, 50},
		{"up-right", 10, 50, 50, 10},
		{"up-left", 50, 50, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStartedSession(t, 1)

			_, committed := s.PointerDown(tt.ax, tt.ay)
			assert.False(t, committed)
			assert.Equal(t, Anchored{X: tt.ax, Y: tt.ay}, s.State())
			assert.Empty(t, s.Boxes())

			b, committed := s.PointerDown(tt.bx, tt.by)
			require.True(t, committed)
			assert.Equal(t, BoundingBox{10, 10, 50, 50}, b)
			assert.Equal(t, []BoundingBox{b}, s.Boxes())
			assert.Equal(t, Idle{}, s.State())
		})
	}
}

func TestCancelDiscardsAnchor(t *testing.T) {
	s, _ := newStartedSession(t, 1)

	s.PointerDown(10, 10)
	assert.True(t, s.Cancel())
	assert.Equal(t, Idle{}, s.State())
	assert.False(t, s.Cancel())

	s.PointerDown(10, 10)
	s.PointerDown(50, 50)
	assert.Equal(t, []BoundingBox{{10, 10, 50, 50}}, s.Boxes())
}

func TestPreviewAndCrosshair(t *testing.T) {
	s, _ := newStartedSession(t, 1)

	_, _, ok := s.Crosshair()
	assert.False(t, ok)
	_, ok = s.PreviewRect()
	assert.False(t, ok)

	s.PointerMove(5, 6)
	x, y, ok := s.Crosshair()
	require.True(t, ok)
	assert.Equal(t, 5, x)
	assert.Equal(t, 6, y)
	_, ok = s.PreviewRect()
	assert.False(t, ok, "no preview while idle")

	s.PointerDown(40, 40)
	s.PointerMove(20, 60)
	r, ok := s.PreviewRect()
	require.True(t, ok)
	assert.Equal(t, BoundingBox{20, 40, 40, 60}, r)
	assert.Equal(t, Anchored{X: 40, Y: 40}, s.State(), "moving does not change state")
	assert.Empty(t, s.Boxes(), "the preview is not a box")
}

func TestDeleteBox(t *testing.T) {
	s, _ := newStartedSession(t, 1)
	for _, c := range [][4]int{{0, 0, 1, 1}, {2, 2, 3, 3}, {4, 4, 5, 5}} {
		s.PointerDown(c[0], c[1])
		s.PointerDown(c[2], c[3])
	}

	assert.True(t, s.DeleteBox(1))
	assert.Equal(t, []BoundingBox{{0, 0, 1, 1}, {4, 4, 5, 5}}, s.Boxes())

	assert.False(t, s.DeleteBox(-1))
	assert.False(t, s.DeleteBox(2))
	assert.Len(t, s.Boxes(), 2)
}

func TestClearBoxesResetsState(t *testing.T) {
	s, _ := newStartedSession(t, 1)
	s.PointerDown(0, 0)
	s.PointerDown(9, 9)
	s.PointerDown(3, 3)
	require.Equal(t, Anchored{X: 3, Y: 3}, s.State())

	s.ClearBoxes()
	assert.Empty(t, s.Boxes())
	assert.Equal(t, Idle{}, s.State())
}

func TestNavigationClampsAndSaves(t *testing.T) {
	s, store := newStartedSession(t, 5)
	first := s.LabelPath()

	require.NoError(t, s.Prev())
	cur, _ := s.Progress()
	assert.Equal(t, 1, cur)
	assert.Equal(t, "0\n", readLabelFile(t, first), "prev at the first image still saves")

	require.NoError(t, s.LoadImage(5))
	last := s.LabelPath()
	s.PointerDown(1, 1)
	s.PointerDown(2, 2)
	require.NoError(t, s.Next())
	cur, _ = s.Progress()
	assert.Equal(t, 5, cur)
	assert.Equal(t, "1\n1 1 2 2\n", readLabelFile(t, last), "next at the last image still saves")
	assert.Equal(t, []BoundingBox{{1, 1, 2, 2}}, s.Boxes())

	assert.Equal(t, store.PathFor(s.ImagePath()), last)
}

func TestNextSavesThenLoads(t *testing.T) {
	s, store := newStartedSession(t, 3)
	s.PointerDown(10, 10)
	s.PointerDown(20, 20)
	s.PointerDown(30, 30)

	require.NoError(t, s.Next())
	assert.Equal(t, "1\n10 10 20 20\n", readLabelFile(t, store.PathFor(filepath.Join("x", "img1.png"))))
	assert.Empty(t, s.Boxes())
	assert.Equal(t, Idle{}, s.State(), "the anchor does not survive an image change")

	require.NoError(t, s.Prev())
	assert.Equal(t, []BoundingBox{{10, 10, 20, 20}}, s.Boxes())
}

func TestGotoBounds(t *testing.T) {
	s, store := newStartedSession(t, 5)
	s.PointerDown(1, 1)
	s.PointerDown(2, 2)

	for _, index := range []int{0, 6, -3} {
		moved, err := s.Goto(index)
		require.NoError(t, err)
		assert.False(t, moved)
		cur, _ := s.Progress()
		assert.Equal(t, 1, cur)
		assert.Len(t, s.Boxes(), 1)
		assert.False(t, store.Exists(s.LabelPath()), "rejected goto does not save")
	}

	firstLabels := s.LabelPath()
	moved, err := s.Goto(3)
	require.NoError(t, err)
	assert.True(t, moved)
	cur, _ := s.Progress()
	assert.Equal(t, 3, cur)
	assert.Equal(t, "1\n1 1 2 2\n", readLabelFile(t, firstLabels))
}

func TestLoadImageRange(t *testing.T) {
	s, _ := newStartedSession(t, 2)
	assert.ErrorIs(t, s.LoadImage(0), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.LoadImage(3), ErrIndexOutOfRange)
	assert.NoError(t, s.LoadImage(2))
}

func TestSaveCurrentIsIdempotent(t *testing.T) {
	s, _ := newStartedSession(t, 1)
	s.PointerDown(3, 4)
	s.PointerDown(1, 2)

	require.NoError(t, s.SaveCurrent())
	first := readLabelFile(t, s.LabelPath())
	require.NoError(t, s.SaveCurrent())
	assert.Equal(t, first, readLabelFile(t, s.LabelPath()))
}

func TestLegacyLabelsAreRewrittenCanonically(t *testing.T) {
	input, output := newTree(t, 2)
	store := NewLabelStore(output)
	legacy := `{"values": [{"bounding_boxes": [{"left": 1, "bottom": 2, "right": 3, "top": 4}]}]}`
	writeFile(t, filepath.Join(output, "img1.txt"), legacy)

	s := NewSession(NewCatalog(input), store, zaptest.NewLogger(t))
	require.NoError(t, s.LoadCategory("cats"))
	assert.Equal(t, []BoundingBox{{1, 2, 3, 4}}, s.Boxes())

	require.NoError(t, s.SaveCurrent())
	assert.Equal(t, "1\n1 2 3 4\n", readLabelFile(t, filepath.Join(output, "img1.txt")))
}

func TestMalformedLabelsLoadEmpty(t *testing.T) {
	input, output := newTree(t, 2)
	writeFile(t, filepath.Join(output, "img2.txt"), "3\n1 2 3 4\n")
	writeFile(t, filepath.Join(output, "img1.txt"), "1\n5 6 7 8\n")

	s := NewSession(NewCatalog(input), NewLabelStore(output), zaptest.NewLogger(t))
	require.NoError(t, s.LoadCategory("cats"))
	assert.Equal(t, []BoundingBox{{5, 6, 7, 8}}, s.Boxes())

	require.NoError(t, s.Next())
	assert.Empty(t, s.Boxes())
}

func TestWriteFailureStopsNavigation(t *testing.T) {
	input, output := newTree(t, 3)
	s := NewSession(NewCatalog(input), NewLabelStore(output), zaptest.NewLogger(t))
	require.NoError(t, s.LoadCategory("cats"))
	s.PointerDown(1, 1)
	s.PointerDown(2, 2)
	require.NoError(t, os.RemoveAll(output))

	err := s.Next()
	var writeErr *WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.False(t, errors.Is(err, ErrMalformedLabels))

	cur, _ := s.Progress()
	assert.Equal(t, 1, cur)
	assert.Len(t, s.Boxes(), 1, "unsaved boxes are kept")

	_, err = s.Goto(2)
	assert.True(t, errors.As(err, &writeErr))
}

func TestCloseFlushes(t *testing.T) {
	s, _ := newStartedSession(t, 1)
	s.PointerDown(7, 8)
	s.PointerDown(9, 10)

	require.NoError(t, s.Close())
	assert.Equal(t, "1\n7 8 9 10\n", readLabelFile(t, s.LabelPath()))
}

func TestLoadCategorySavesCurrentImage(t *testing.T) {
	s, _ := newStartedSession(t, 1)
	s.PointerDown(0, 0)
	s.PointerDown(4, 4)
	labels := s.LabelPath()

	require.NoError(t, s.LoadCategory("cats"))
	assert.Equal(t, "1\n0 0 4 4\n", readLabelFile(t, labels))
	assert.Equal(t, []BoundingBox{{0, 0, 4, 4}}, s.Boxes())
}
