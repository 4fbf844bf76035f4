package engine

import (
	"cmp"
	"slices"

	"github.com/inamate/infomap/internal/geom"
)

// docOrder lists the live items in document order: images, then areas,
// then connections, each in their collection's order.
func (e *Engine) docOrder() []Item {
	if e.doc == nil {
		return nil
	}
	out := make([]Item, 0, len(e.items))
	for _, c := range e.doc.Images {
		if it, ok := e.items[c.ID]; ok {
			out = append(out, it)
		}
	}
	for _, c := range e.doc.InfoAreas {
		if it, ok := e.items[c.ID]; ok {
			out = append(out, it)
		}
	}
	for _, c := range e.doc.Connections {
		if it, ok := e.items[c.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// paintOrder returns the items back to front. Equal z values keep document
// order.
func (e *Engine) paintOrder() []Item {
	items := e.docOrder()
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(a.ZIndex(), b.ZIndex())
	})
	return items
}

// frontToBack is paintOrder reversed, the order hit tests use.
func (e *Engine) frontToBack() []Item {
	items := e.paintOrder()
	slices.Reverse(items)
	return items
}

// Items returns the live items in painter's order.
func (e *Engine) Items() []Item {
	return e.paintOrder()
}

// hitItem returns the topmost item under p.
func (e *Engine) hitItem(p geom.Point) Item {
	for _, it := range e.frontToBack() {
		if it.HitTest(p) {
			return it
		}
	}
	return nil
}
