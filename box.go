package bblabel

// Bounding box geometry and positional coloring.

import "fmt"

// Palette holds the outline colors assigned to boxes by their position in the box list.
var Palette = []string{"red", "blue", "yellow", "pink", "cyan", "green", "black"}

// BoundingBox is an axis-aligned rectangle in image pixel coordinates. X1 <= X2 and Y1 <= Y2 hold
// for every box created through NewBoundingBox.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

// NewBoundingBox returns the box spanned by the corners (ax, ay) and (bx, by), in any order.
func NewBoundingBox(ax, ay, bx, by int) BoundingBox {
	return BoundingBox{
		X1: min(ax, bx),
		Y1: min(ay, by),
		X2: max(ax, bx),
		Y2: max(ay, by),
	}
}

// Width is X2 - X1.
func (b BoundingBox) Width() int {
	return b.X2 - b.X1
}

// Height is Y2 - Y1.
func (b BoundingBox) Height() int {
	return b.Y2 - b.Y1
}

// String formats the box the way the box list displays it.
func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d, %d) -> (%d, %d)", b.X1, b.Y1, b.X2, b.Y2)
}

// Color returns the palette color for the box at index in the box list. Colors are positional and
// must be looked up again whenever the list changes.
func Color(index int) string {
	n := len(Palette)
	return Palette[((index%n)+n)%n]
}
