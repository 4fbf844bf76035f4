package engine

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

var (
	ErrNoDocument          = errors.New("no document loaded")
	ErrNotFound            = errors.New("item not found")
	ErrNotArea             = errors.New("item is not an info area")
	ErrSelfConnection      = errors.New("cannot connect an area to itself")
	ErrDuplicateConnection = errors.New("areas are already connected")
)

// Engine owns the live items for one document and coordinates pointer
// routing, selection, and edits. It is not safe for concurrent use.
type Engine struct {
	doc    *document.Project
	bus    *Bus
	styles *style.Manager

	items map[string]Item

	// Selection in the order items were added to it.
	selection []string

	// Items taking part in the current pointer gesture.
	active []Item

	unsubscribe func()
}

// NewEngine creates an engine publishing on bus. A nil bus gets a private one.
func NewEngine(bus *Bus) *Engine {
	if bus == nil {
		bus = NewBus()
	}
	e := &Engine{bus: bus, items: make(map[string]Item)}
	e.unsubscribe = bus.Subscribe(e.follow)
	return e
}

// Close detaches the engine from its bus.
func (e *Engine) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

func (e *Engine) Bus() *Bus                   { return e.bus }
func (e *Engine) Document() *document.Project { return e.doc }

// Load replaces the document and rebuilds every live item from it.
// Connections with a missing endpoint are dropped.
func (e *Engine) Load(doc *document.Project) {
	e.doc = doc
	e.styles = style.NewManager(doc)
	e.items = make(map[string]Item)
	e.selection = nil
	e.active = nil

	for _, id := range doc.Dangling() {
		slog.Warn("dropping dangling connection", "id", id)
		doc.RemoveConnection(id)
	}

	for _, c := range doc.Images {
		e.items[c.ID] = newImageItem(c.ID, doc, e.bus)
	}
	for _, c := range doc.InfoAreas {
		a := newAreaItem(c.ID, doc, e.bus)
		a.binding.Restore(style.ForArea(doc.Area(c.ID)), doc.TextStyle(c.TextStyleRef))
		e.items[c.ID] = a
	}
	for _, c := range doc.Connections {
		ci := newConnectionItem(c.ID, doc, e.areaShape)
		ci.binding.Restore(style.ForConnection(doc.Connection(c.ID)), doc.LineStyle(c.LineStyleRef))
		e.items[c.ID] = ci
	}

	e.normalizeZ()
	e.bus.Publish(Event{Type: EventDocumentLoaded})
}

// DocumentJSON serializes the current document.
func (e *Engine) DocumentJSON() (string, error) {
	if e.doc == nil {
		return "{}", ErrNoDocument
	}
	data, err := json.Marshal(e.doc)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}

// Item returns the live item with id, or nil.
func (e *Engine) Item(id string) Item {
	return e.items[id]
}

func (e *Engine) area(id string) (*AreaItem, error) {
	it, ok := e.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	a, ok := it.(*AreaItem)
	if !ok {
		return nil, ErrNotArea
	}
	return a, nil
}

func (e *Engine) areaShape(id string) (geom.Shape, bool) {
	a, ok := e.items[id].(*AreaItem)
	if !ok {
		return geom.Shape{}, false
	}
	return a.Shape(), true
}

// follow keeps connections attached to the areas they join.
func (e *Engine) follow(ev Event) {
	if ev.Kind != KindArea {
		return
	}
	switch ev.Type {
	case EventPositionChanged, EventItemMoved, EventPropertiesChanged:
		e.refreshConnections(ev.ItemID)
	}
}

func (e *Engine) refreshConnections(areaID string) {
	for _, it := range e.items {
		if c, ok := it.(*ConnectionItem); ok && c.Touches(areaID) {
			c.Refresh()
		}
	}
}

// --- Selection ---

// Selection returns the selected ids in selection order.
func (e *Engine) Selection() []string {
	return slices.Clone(e.selection)
}

// Select replaces the selection. There is no interaction order to preserve
// for a programmatic selection, so ids are sorted as strings; for generated
// ids that is creation order.
func (e *Engine) Select(ids ...string) {
	var next []string
	for _, id := range ids {
		if _, ok := e.items[id]; ok && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	slices.Sort(next)
	e.setSelection(next)
}

// SelectAll selects every item.
func (e *Engine) SelectAll() {
	ids := make([]string, 0, len(e.items))
	for id := range e.items {
		ids = append(ids, id)
	}
	e.Select(ids...)
}

// ClearSelection deselects everything.
func (e *Engine) ClearSelection() {
	e.setSelection(nil)
}

func (e *Engine) toggleSelected(id string) {
	next := slices.Clone(e.selection)
	if i := slices.Index(next, id); i >= 0 {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, id)
	}
	e.setSelection(next)
}

func (e *Engine) setSelection(ids []string) {
	if slices.Equal(ids, e.selection) {
		return
	}
	for _, id := range e.selection {
		if it, ok := e.items[id]; ok {
			it.setSelected(false)
		}
	}
	e.selection = ids
	for _, id := range ids {
		e.items[id].setSelected(true)
	}
	e.bus.Publish(Event{Type: EventSelectionChanged})
}

// --- Pointer routing ---

// PointerDown routes a press. Handles of selected areas win over bodies;
// otherwise the topmost item under the pointer is selected (or toggled with
// Shift) and every selected item starts dragging with it.
func (e *Engine) PointerDown(ev PointerEvent) {
	if e.doc == nil {
		return
	}
	e.active = nil

	if !ev.Shift {
		for _, it := range e.frontToBack() {
			a, ok := it.(*AreaItem)
			if !ok || !a.Selected() {
				continue
			}
			if a.OnRotateHandle(ev.Pos) || a.HandleAt(ev.Pos) != HandleNone {
				if a.Press(ev) {
					e.active = []Item{a}
				}
				return
			}
		}
	}

	hit := e.hitItem(ev.Pos)
	if hit == nil {
		if !ev.Shift {
			e.ClearSelection()
		}
		return
	}
	if ev.Shift {
		e.toggleSelected(hit.ID())
		return
	}
	wasSelected := hit.Selected()
	if !wasSelected {
		e.setSelection([]string{hit.ID()})
	}

	for _, id := range e.selection {
		it := e.items[id]
		press := ev
		press.DragOnly = it != hit || !wasSelected
		if it.Press(press) {
			e.active = append(e.active, it)
		}
	}
}

// PointerMove forwards to the items in the current gesture.
func (e *Engine) PointerMove(ev PointerEvent) {
	for _, it := range e.active {
		it.Move(ev)
	}
}

// PointerUp completes the gesture at the last pointer position.
func (e *Engine) PointerUp(ev PointerEvent) {
	active := e.active
	e.active = nil
	for _, it := range active {
		it.Release(ev)
	}
}

// Busy reports whether a pointer gesture is in progress.
func (e *Engine) Busy() bool {
	return len(e.active) > 0
}

// HitTest returns the id of the topmost item under p, or "".
func (e *Engine) HitTest(p geom.Point) string {
	if it := e.hitItem(p); it != nil {
		return it.ID()
	}
	return ""
}

// SelectionBounds is the scene-space box around every selected item.
func (e *Engine) SelectionBounds() geom.Rect {
	var r geom.Rect
	for _, id := range e.selection {
		r = r.Union(e.items[id].Bounds())
	}
	return r
}
