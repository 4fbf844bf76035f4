package engine

import (
	"math"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

// AreaItem is the live view of an info area. The config (looked up by id)
// is authoritative; the item caches geometry and carries gesture state.
type AreaItem struct {
	id  string
	doc *document.Project
	bus *Bus

	pos           geom.Point // top-left of the unrotated box
	width, height float64
	angle         float64

	movable  bool
	selected bool
	state    State
	handle   Handle

	// captured at press time
	grab              geom.Point
	startMouse        geom.Point
	startPos          geom.Point
	startW, startH    float64
	startAngle        float64
	rotCenter         geom.Point
	startPointerAngle float64
	wasMovable        bool

	binding style.Binding
}

func newAreaItem(id string, doc *document.Project, bus *Bus) *AreaItem {
	a := &AreaItem{id: id, doc: doc, bus: bus, movable: true}
	a.syncFromConfig()
	return a
}

func (a *AreaItem) ID() string        { return a.id }
func (a *AreaItem) Kind() Kind        { return KindArea }
func (a *AreaItem) State() State      { return a.state }
func (a *AreaItem) Handle() Handle    { return a.handle }
func (a *AreaItem) Selected() bool    { return a.selected }
func (a *AreaItem) Movable() bool     { return a.movable }
func (a *AreaItem) Angle() float64    { return a.angle }
func (a *AreaItem) Pos() geom.Point   { return a.pos }
func (a *AreaItem) SetMovable(m bool) { a.movable = m }

func (a *AreaItem) setSelected(s bool) { a.selected = s }

// Size returns the cached width and height.
func (a *AreaItem) Size() (float64, float64) { return a.width, a.height }

func (a *AreaItem) config() *document.AreaConfig { return a.doc.Area(a.id) }

func (a *AreaItem) ZIndex() int {
	if c := a.config(); c != nil {
		return c.ZIndex
	}
	return 0
}

func (a *AreaItem) setZIndex(z int) {
	if c := a.config(); c != nil {
		c.ZIndex = z
	}
}

// syncFromConfig rebuilds the cached geometry from the config.
func (a *AreaItem) syncFromConfig() {
	c := a.config()
	if c == nil {
		return
	}
	a.width = max(c.Width, document.MinWidth)
	a.height = max(c.Height, document.MinHeight)
	a.angle = c.Angle
	a.pos = geom.Pt(c.CenterX-a.width/2, c.CenterY-a.height/2)
}

// TransformOrigin is the rotation pivot in local coordinates.
func (a *AreaItem) TransformOrigin() geom.Point {
	return geom.Pt(a.width/2, a.height/2)
}

// Center is the pivot in scene coordinates.
func (a *AreaItem) Center() geom.Point {
	return a.pos.Add(a.TransformOrigin())
}

// SceneTransform maps local coordinates to the scene.
func (a *AreaItem) SceneTransform() geom.Matrix2D {
	o := a.TransformOrigin()
	return geom.Translate(a.pos.X, a.pos.Y).Multiply(geom.RotateAbout(a.angle, o.X, o.Y))
}

func (a *AreaItem) toLocal(p geom.Point) geom.Point {
	return a.SceneTransform().Invert().Apply(p)
}

// MapToScene converts a local point to scene coordinates.
func (a *AreaItem) MapToScene(local geom.Point) geom.Point {
	return a.SceneTransform().Apply(local)
}

func (a *AreaItem) Bounds() geom.Rect {
	return a.SceneTransform().TransformRect(geom.Rect{Width: a.width, Height: a.height})
}

// Shape describes the area for polygon geometry.
func (a *AreaItem) Shape() geom.Shape {
	kind := geom.ShapeRectangle
	if c := a.config(); c != nil && c.Shape == document.ShapeEllipse {
		kind = geom.ShapeEllipse
	}
	return geom.Shape{Kind: kind, Center: a.Center(), Width: a.width, Height: a.height, Angle: a.angle}
}

func (a *AreaItem) HitTest(p geom.Point) bool {
	l := a.toLocal(p)
	if c := a.config(); c != nil && c.Shape == document.ShapeEllipse {
		rx, ry := a.width/2, a.height/2
		dx, dy := (l.X-rx)/rx, (l.Y-ry)/ry
		return dx*dx+dy*dy <= 1
	}
	return l.X >= 0 && l.X <= a.width && l.Y >= 0 && l.Y <= a.height
}

// RotateHandlePos is the scene position of the rotate handle, offset
// outward from the top-right corner.
func (a *AreaItem) RotateHandlePos() geom.Point {
	return a.MapToScene(geom.Pt(a.width+RotateHandleOffset, -RotateHandleOffset))
}

// OnRotateHandle reports whether p hits the rotate handle.
func (a *AreaItem) OnRotateHandle(p geom.Point) bool {
	return p.Dist(a.RotateHandlePos()) <= rotateHitRadius
}

// HandleAt returns the resize zone under p, or HandleNone.
func (a *AreaItem) HandleAt(p geom.Point) Handle {
	return handleAt(a.toLocal(p), a.width, a.height)
}

// Press picks rotate handle, then resize handle, then body. Handles are
// only live while the item is selected.
func (a *AreaItem) Press(ev PointerEvent) bool {
	if a.state != StateIdle {
		return false
	}
	p := ev.Pos
	if ev.DragOnly {
		return a.beginDrag(p)
	}
	if a.selected {
		if a.OnRotateHandle(p) {
			a.beginRotate(p)
			return true
		}
		if h := a.HandleAt(p); h != HandleNone {
			a.beginResize(p, h)
			return true
		}
	}
	if a.HitTest(p) {
		return a.beginDrag(p)
	}
	return false
}

func (a *AreaItem) beginDrag(p geom.Point) bool {
	if !a.movable {
		return false
	}
	a.state = StateDragging
	a.grab = p.Sub(a.pos)
	return true
}

func (a *AreaItem) beginResize(p geom.Point, h Handle) {
	a.state = StateResizing
	a.handle = h
	a.startMouse = p
	a.startW, a.startH = a.width, a.height
	a.startPos = a.pos
	a.startAngle = a.angle
	a.wasMovable = a.movable
	a.movable = false
}

func (a *AreaItem) beginRotate(p geom.Point) {
	a.state = StateRotating
	a.rotCenter = a.Center()
	a.startAngle = a.angle
	a.startPointerAngle = pointerAngle(a.rotCenter, p)
	a.wasMovable = a.movable
	a.movable = false
}

func pointerAngle(center, p geom.Point) float64 {
	d := p.Sub(center)
	return geom.Degrees(math.Atan2(d.Y, d.X))
}

func (a *AreaItem) Move(ev PointerEvent) {
	switch a.state {
	case StateDragging:
		a.setPos(ev.Pos.Sub(a.grab))
	case StateResizing:
		a.resizeTo(ev.Pos)
	case StateRotating:
		a.angle = a.startAngle + (pointerAngle(a.rotCenter, ev.Pos) - a.startPointerAngle)
	default:
		return
	}
	a.bus.Publish(Event{Type: EventPositionChanged, ItemID: a.id, Kind: KindArea})
}

// setPos moves the item and keeps the config center in step.
func (a *AreaItem) setPos(p geom.Point) {
	a.pos = p
	if c := a.config(); c != nil {
		center := a.Center()
		c.CenterX, c.CenterY = center.X, center.Y
	}
}

// resizeTo applies a handle drag expressed in the item's rotated axes.
// Sizes are clamped to the minimum and the position shift uses the clamped
// size, so the corner opposite the handle stays where it was.
func (a *AreaItem) resizeTo(p geom.Point) {
	rad := geom.Radians(a.startAngle)
	axisX := geom.Pt(math.Cos(rad), math.Sin(rad))
	axisY := geom.Pt(-math.Sin(rad), math.Cos(rad))

	delta := p.Sub(a.startMouse)
	dlx, dly := delta.Dot(axisX), delta.Dot(axisY)

	sw, sh := a.handle.Signs()
	newW := max(a.startW+sw*dlx, document.MinWidth)
	newH := max(a.startH+sh*dly, document.MinHeight)

	var shiftX, shiftY float64
	if sw < 0 {
		shiftX = a.startW - newW
	}
	if sh < 0 {
		shiftY = a.startH - newH
	}

	// The pivot is the box center, so growing the box also moves the pivot;
	// subtract the resulting displacement of the unrotated origin.
	dc := geom.Pt((newW-a.startW)/2, (newH-a.startH)/2)
	pivotDrift := dc.Sub(geom.RotateDegrees(a.startAngle).Apply(dc))

	shift := axisX.Mul(shiftX).Add(axisY.Mul(shiftY))
	a.width, a.height = newW, newH
	a.pos = a.startPos.Add(shift).Sub(pivotDrift)
}

func (a *AreaItem) Release(ev PointerEvent) {
	switch a.state {
	case StateDragging:
		a.state = StateIdle
		a.setPos(a.pos)
		a.bus.Publish(Event{Type: EventItemMoved, ItemID: a.id, Kind: KindArea})
	case StateResizing:
		a.state = StateIdle
		a.handle = HandleNone
		a.movable = a.wasMovable
		a.writeGeometry()
		a.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: a.id, Kind: KindArea})
	case StateRotating:
		a.state = StateIdle
		a.movable = a.wasMovable
		a.writeGeometry()
		a.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: a.id, Kind: KindArea})
	}
}

func (a *AreaItem) writeGeometry() {
	c := a.config()
	if c == nil {
		return
	}
	center := a.Center()
	c.Width, c.Height = a.width, a.height
	c.CenterX, c.CenterY = center.X, center.Y
	c.Angle = a.angle
}

// Corner returns the scene position of a handle anchor.
func (a *AreaItem) Corner(h Handle) geom.Point {
	return a.MapToScene(h.Anchor(a.width, a.height))
}
