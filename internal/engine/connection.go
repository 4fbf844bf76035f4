package engine

import (
	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

// connectionHitSlop widens the line for selection clicks.
const connectionHitSlop = 3.0

// ConnectionItem draws a line between two areas and follows them; it has
// no gestures of its own.
type ConnectionItem struct {
	id  string
	doc *document.Project

	// shapeOf resolves a live area's current geometry.
	shapeOf func(areaID string) (geom.Shape, bool)

	p1, p2   geom.Point
	selected bool
	binding  style.Binding
}

func newConnectionItem(id string, doc *document.Project, shapeOf func(string) (geom.Shape, bool)) *ConnectionItem {
	c := &ConnectionItem{id: id, doc: doc, shapeOf: shapeOf}
	c.Refresh()
	return c
}

func (c *ConnectionItem) ID() string                          { return c.id }
func (c *ConnectionItem) Kind() Kind                          { return KindConnection }
func (c *ConnectionItem) State() State                        { return StateIdle }
func (c *ConnectionItem) Selected() bool                      { return c.selected }
func (c *ConnectionItem) setSelected(s bool)                  { c.selected = s }
func (c *ConnectionItem) Press(PointerEvent) bool             { return false }
func (c *ConnectionItem) Move(PointerEvent)                   {}
func (c *ConnectionItem) Release(PointerEvent)                {}
func (c *ConnectionItem) Endpoints() (geom.Point, geom.Point) { return c.p1, c.p2 }

func (c *ConnectionItem) config() *document.ConnectionConfig { return c.doc.Connection(c.id) }

func (c *ConnectionItem) ZIndex() int {
	if cfg := c.config(); cfg != nil {
		return cfg.ZIndex
	}
	return 0
}

func (c *ConnectionItem) setZIndex(z int) {
	if cfg := c.config(); cfg != nil {
		cfg.ZIndex = z
	}
}

// Touches reports whether the connection ends at areaID.
func (c *ConnectionItem) Touches(areaID string) bool {
	cfg := c.config()
	return cfg != nil && cfg.Touches(areaID)
}

// Refresh recomputes the on-screen segment from the endpoint centers.
func (c *ConnectionItem) Refresh() {
	cfg := c.config()
	if cfg == nil {
		return
	}
	if s, ok := c.shapeOf(cfg.Source); ok {
		c.p1 = s.Center
	}
	if s, ok := c.shapeOf(cfg.Destination); ok {
		c.p2 = s.Center
	}
}

// BoundaryEndpoints is the segment clipped to both shapes' outlines, the
// form the exporter draws.
func (c *ConnectionItem) BoundaryEndpoints() (geom.Point, geom.Point) {
	cfg := c.config()
	if cfg == nil {
		return c.p1, c.p2
	}
	src, ok1 := c.shapeOf(cfg.Source)
	dst, ok2 := c.shapeOf(cfg.Destination)
	if !ok1 || !ok2 {
		return c.p1, c.p2
	}
	return geom.ConnectorEndpoints(src, dst)
}

func (c *ConnectionItem) Bounds() geom.Rect {
	return geom.BoundsOf([]geom.Point{c.p1, c.p2})
}

func (c *ConnectionItem) HitTest(p geom.Point) bool {
	width := document.BuiltinDefaults().Thickness
	if cfg := c.config(); cfg != nil && cfg.Thickness != nil {
		width = *cfg.Thickness
	}
	return geom.DistanceToSegment(p, c.p1, c.p2) <= width/2+connectionHitSlop
}
