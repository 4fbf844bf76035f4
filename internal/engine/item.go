package engine

import "github.com/inamate/infomap/internal/geom"

// Kind distinguishes the three canvas item types.
type Kind string

const (
	KindImage      Kind = "image"
	KindArea       Kind = "area"
	KindConnection Kind = "connection"
)

// State is the interaction an item is currently in.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateResizing
	StateRotating
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	case StateRotating:
		return "rotating"
	}
	return "idle"
}

// PointerEvent is a pointer position in scene coordinates.
type PointerEvent struct {
	Pos geom.Point `json:"pos"`
	// Shift toggles membership in the selection instead of replacing it.
	Shift bool `json:"shift,omitempty"`
	// DragOnly restricts the press to starting a drag. It is set for
	// selected items following a group drag and for the item a press has
	// just selected, whose handles were not live yet.
	DragOnly bool `json:"-"`
}

// Item is the capability set shared by everything on the canvas.
type Item interface {
	ID() string
	Kind() Kind
	ZIndex() int
	Bounds() geom.Rect
	HitTest(p geom.Point) bool
	State() State

	// Press starts whatever interaction the item's hit zones select and
	// reports whether one started.
	Press(ev PointerEvent) bool
	Move(ev PointerEvent)
	Release(ev PointerEvent)

	setZIndex(z int)
	setSelected(selected bool)
	Selected() bool
}
