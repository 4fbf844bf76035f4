package engine

import (
	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
)

// ImageItem is a placed picture. It only drags; size comes from the
// config's scale. The config center is the only stored position, so
// dimensions probed after load resize the image about its center.
type ImageItem struct {
	id  string
	doc *document.Project
	bus *Bus

	movable  bool
	selected bool
	state    State
	grab     geom.Point
}

func newImageItem(id string, doc *document.Project, bus *Bus) *ImageItem {
	return &ImageItem{id: id, doc: doc, bus: bus, movable: true}
}

func (it *ImageItem) ID() string                    { return it.id }
func (it *ImageItem) Kind() Kind                    { return KindImage }
func (it *ImageItem) State() State                  { return it.state }
func (it *ImageItem) Selected() bool                { return it.selected }
func (it *ImageItem) SetMovable(m bool)             { it.movable = m }
func (it *ImageItem) setSelected(s bool)            { it.selected = s }
func (it *ImageItem) config() *document.ImageConfig { return it.doc.Image(it.id) }

func (it *ImageItem) ZIndex() int {
	if c := it.config(); c != nil {
		return c.ZIndex
	}
	return 0
}

func (it *ImageItem) setZIndex(z int) {
	if c := it.config(); c != nil {
		c.ZIndex = z
	}
}

// Size is original * scale; unknown dimensions use the placeholder size.
func (it *ImageItem) Size() (float64, float64) {
	c := it.config()
	if c == nil {
		return document.PlaceholderSize, document.PlaceholderSize
	}
	return c.DisplaySize()
}

func (it *ImageItem) Center() geom.Point {
	c := it.config()
	if c == nil {
		return geom.Point{}
	}
	return geom.Pt(c.CenterX, c.CenterY)
}

// Pos is the top-left corner of the displayed image.
func (it *ImageItem) Pos() geom.Point {
	w, h := it.Size()
	return it.Center().Sub(geom.Pt(w/2, h/2))
}

func (it *ImageItem) Bounds() geom.Rect {
	w, h := it.Size()
	p := it.Pos()
	return geom.Rect{X: p.X, Y: p.Y, Width: w, Height: h}
}

func (it *ImageItem) HitTest(p geom.Point) bool {
	return it.Bounds().Contains(p.X, p.Y)
}

func (it *ImageItem) Press(ev PointerEvent) bool {
	if it.state != StateIdle || !it.movable {
		return false
	}
	if !ev.DragOnly && !it.HitTest(ev.Pos) {
		return false
	}
	it.state = StateDragging
	it.grab = ev.Pos.Sub(it.Pos())
	return true
}

func (it *ImageItem) Move(ev PointerEvent) {
	if it.state != StateDragging {
		return
	}
	it.setPos(ev.Pos.Sub(it.grab))
	it.bus.Publish(Event{Type: EventPositionChanged, ItemID: it.id, Kind: KindImage})
}

func (it *ImageItem) Release(ev PointerEvent) {
	if it.state != StateDragging {
		return
	}
	it.state = StateIdle
	it.bus.Publish(Event{Type: EventItemMoved, ItemID: it.id, Kind: KindImage})
}

// setPos moves the image so its top-left corner is at p.
func (it *ImageItem) setPos(p geom.Point) {
	c := it.config()
	if c == nil {
		return
	}
	w, h := it.Size()
	c.CenterX, c.CenterY = p.X+w/2, p.Y+h/2
}

// setScale changes the scale about the current center.
func (it *ImageItem) setScale(scale float64) {
	c := it.config()
	if c == nil || scale <= 0 {
		return
	}
	c.Scale = scale
}
