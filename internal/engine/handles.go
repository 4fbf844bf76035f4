package engine

import "github.com/inamate/infomap/internal/geom"

// Interaction geometry, in scene pixels.
const (
	ResizeMargin       = 8.0
	RotateHandleOffset = 15.0
	RotateHandleRadius = 4.0
	// the rotate handle accepts presses a little outside its drawn circle
	rotateHitRadius = RotateHandleRadius * 2
)

// Handle identifies one of the eight resize zones.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

var handleNames = map[Handle]string{
	HandleNone:        "none",
	HandleTopLeft:     "top_left",
	HandleTop:         "top",
	HandleTopRight:    "top_right",
	HandleRight:       "right",
	HandleBottomRight: "bottom_right",
	HandleBottom:      "bottom",
	HandleBottomLeft:  "bottom_left",
	HandleLeft:        "left",
}

func (h Handle) String() string { return handleNames[h] }

// AllHandles lists the resize handles clockwise from the top-left corner.
var AllHandles = []Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

// Signs returns how the local pointer delta feeds width and height:
// -1 subtracts, +1 adds, 0 ignores that axis.
func (h Handle) Signs() (sw, sh float64) {
	switch h {
	case HandleTopLeft:
		return -1, -1
	case HandleTop:
		return 0, -1
	case HandleTopRight:
		return 1, -1
	case HandleRight:
		return 1, 0
	case HandleBottomRight:
		return 1, 1
	case HandleBottom:
		return 0, 1
	case HandleBottomLeft:
		return -1, 1
	case HandleLeft:
		return -1, 0
	}
	return 0, 0
}

// Anchor is the handle's position in item-local coordinates for a w x h box.
func (h Handle) Anchor(w, hgt float64) geom.Point {
	switch h {
	case HandleTopLeft:
		return geom.Pt(0, 0)
	case HandleTop:
		return geom.Pt(w/2, 0)
	case HandleTopRight:
		return geom.Pt(w, 0)
	case HandleRight:
		return geom.Pt(w, hgt/2)
	case HandleBottomRight:
		return geom.Pt(w, hgt)
	case HandleBottom:
		return geom.Pt(w/2, hgt)
	case HandleBottomLeft:
		return geom.Pt(0, hgt)
	case HandleLeft:
		return geom.Pt(0, hgt/2)
	}
	return geom.Pt(w/2, hgt/2)
}

// Opposite returns the handle diagonally (or directly) across.
func (h Handle) Opposite() Handle {
	switch h {
	case HandleTopLeft:
		return HandleBottomRight
	case HandleTop:
		return HandleBottom
	case HandleTopRight:
		return HandleBottomLeft
	case HandleRight:
		return HandleLeft
	case HandleBottomRight:
		return HandleTopLeft
	case HandleBottom:
		return HandleTop
	case HandleBottomLeft:
		return HandleTopRight
	case HandleLeft:
		return HandleRight
	}
	return HandleNone
}

// handleAt finds the resize zone containing a local point, or HandleNone.
// Corners are checked before edge midpoints.
func handleAt(local geom.Point, w, h float64) Handle {
	for _, hd := range []Handle{HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft, HandleTop, HandleRight, HandleBottom, HandleLeft} {
		if local.Near(hd.Anchor(w, h), ResizeMargin) {
			return hd
		}
	}
	return HandleNone
}
