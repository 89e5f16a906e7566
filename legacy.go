package bblabel

// Legacy label import. Older label files hold a JSON document of the form
//
//	{"values": [{"bounding_boxes": [{"left": 1, "bottom": 2, "right": 3, "top": 4}, ...]}, ...]}
//
// These files are only read. Saving an image always replaces them with the canonical format.

import (
	"fmt"

	"github.com/bytedance/sonic"
)

type legacyBox struct {
	Left   *int `json:"left"`
	Bottom *int `json:"bottom"`
	Right  *int `json:"right"`
	Top    *int `json:"top"`
}

type legacyValue struct {
	BoundingBoxes *[]legacyBox `json:"bounding_boxes"`
}

type legacyDocument struct {
	Values *[]legacyValue `json:"values"`
}

// parseLegacyLabels extracts (left, bottom, right, top) of every box as (x1, y1, x2, y2), in
// document order. Missing keys, nulls and non-integer values are errors.
func parseLegacyLabels(data []byte) ([]BoundingBox, error) {
	var doc legacyDocument
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLabels, err)
	}
	if doc.Values == nil {
		return nil, fmt.Errorf("%w: missing \"values\"", ErrMalformedLabels)
	}

	var boxes []BoundingBox
	for i, v := range *doc.Values {
		if v.BoundingBoxes == nil {
			return nil, fmt.Errorf("%w: values[%d] is missing \"bounding_boxes\"", ErrMalformedLabels, i)
		}
		for j, b := range *v.BoundingBoxes {
			if b.Left == nil || b.Bottom == nil || b.Right == nil || b.Top == nil {
				return nil, fmt.Errorf("%w: values[%d].bounding_boxes[%d] is incomplete",
					ErrMalformedLabels, i, j)
			}
			boxes = append(boxes, NewBoundingBox(*b.Left, *b.Bottom, *b.Right, *b.Top))
		}
	}

	return boxes, nil
}
