package engine

import (
	"fmt"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
)

// AlignMode selects what Align matches against the reference area.
type AlignMode string

const (
	AlignLeft    AlignMode = "left"
	AlignRight   AlignMode = "right"
	AlignTop     AlignMode = "top"
	AlignBottom  AlignMode = "bottom"
	AlignCenterX AlignMode = "center_x"
	AlignCenterY AlignMode = "center_y"
	AlignWidth   AlignMode = "width"
	AlignHeight  AlignMode = "height"
	AlignSize    AlignMode = "size"
	AlignAngle   AlignMode = "angle"
)

// ReferenceArea is the area the others align to: the first selected area.
// Programmatic selections are ordered by id, so the id that sorts first as
// a string wins there. Generated ids are time-ordered, which makes that the
// oldest area; hand-written ids from an edited config sort lexically.
func (e *Engine) ReferenceArea() (*AreaItem, bool) {
	for _, id := range e.selection {
		if a, ok := e.items[id].(*AreaItem); ok {
			return a, true
		}
	}
	return nil, false
}

// Align makes every other selected area match the reference area. Edge and
// center modes compare scene bounding boxes; size modes keep each area's
// center.
func (e *Engine) Align(mode AlignMode) error {
	ref, ok := e.ReferenceArea()
	if !ok {
		return fmt.Errorf("align: %w", ErrNotFound)
	}
	rb := ref.Bounds()
	rcx, rcy := rb.Center()

	for _, id := range e.selection {
		a, ok := e.items[id].(*AreaItem)
		if !ok || a == ref {
			continue
		}
		c := a.config()
		b := a.Bounds()
		bcx, bcy := b.Center()

		var shift geom.Point
		resized := false
		switch mode {
		case AlignLeft:
			shift.X = rb.X - b.X
		case AlignRight:
			shift.X = (rb.X + rb.Width) - (b.X + b.Width)
		case AlignTop:
			shift.Y = rb.Y - b.Y
		case AlignBottom:
			shift.Y = (rb.Y + rb.Height) - (b.Y + b.Height)
		case AlignCenterX:
			shift.X = rcx - bcx
		case AlignCenterY:
			shift.Y = rcy - bcy
		case AlignWidth, AlignHeight, AlignSize:
			rw, rh := ref.Size()
			if mode != AlignHeight {
				c.Width = max(rw, document.MinWidth)
			}
			if mode != AlignWidth {
				c.Height = max(rh, document.MinHeight)
			}
			resized = true
		case AlignAngle:
			c.Angle = ref.Angle()
			resized = true
		default:
			return fmt.Errorf("align: unknown mode %q", mode)
		}

		if resized {
			a.syncFromConfig()
			e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: id, Kind: KindArea})
			continue
		}
		if shift.X == 0 && shift.Y == 0 {
			continue
		}
		c.CenterX += shift.X
		c.CenterY += shift.Y
		a.syncFromConfig()
		e.bus.Publish(Event{Type: EventItemMoved, ItemID: id, Kind: KindArea})
	}
	return nil
}
