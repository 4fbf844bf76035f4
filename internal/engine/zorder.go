package engine

import (
	"slices"

	"github.com/inamate/infomap/internal/geom"
)

// normalizeZ rewrites every item's z-index to the dense sequence 0..N-1
// and reports whether any value changed.
func (e *Engine) normalizeZ() bool {
	items := e.docOrder()
	z := make([]int, len(items))
	for i, it := range items {
		z[i] = it.ZIndex()
	}
	changed := false
	for i, rank := range geom.NormalizeZ(z) {
		if items[i].ZIndex() != rank {
			items[i].setZIndex(rank)
			changed = true
		}
	}
	return changed
}

// topZ is the z-index that places a new item above everything else.
func (e *Engine) topZ() int {
	top := -1
	for _, it := range e.items {
		top = max(top, it.ZIndex())
	}
	return top + 1
}

// Raise swaps the item with the one directly above it.
func (e *Engine) Raise(id string) error {
	return e.restack(id, func(order []Item, i int) []Item {
		if i < len(order)-1 {
			order[i], order[i+1] = order[i+1], order[i]
		}
		return order
	})
}

// Lower swaps the item with the one directly below it.
func (e *Engine) Lower(id string) error {
	return e.restack(id, func(order []Item, i int) []Item {
		if i > 0 {
			order[i], order[i-1] = order[i-1], order[i]
		}
		return order
	})
}

// BringToFront moves the item above all others.
func (e *Engine) BringToFront(id string) error {
	return e.restack(id, func(order []Item, i int) []Item {
		it := order[i]
		return append(slices.Delete(order, i, i+1), it)
	})
}

// SendToBack moves the item below all others.
func (e *Engine) SendToBack(id string) error {
	return e.restack(id, func(order []Item, i int) []Item {
		it := order[i]
		return slices.Insert(slices.Delete(order, i, i+1), 0, it)
	})
}

// restack applies a reordering to the painter's order and assigns every
// item its new position as z-index.
func (e *Engine) restack(id string, reorder func(order []Item, i int) []Item) error {
	if _, ok := e.items[id]; !ok {
		return ErrNotFound
	}
	order := e.paintOrder()
	i := slices.IndexFunc(order, func(it Item) bool { return it.ID() == id })
	order = reorder(order, i)

	changed := false
	for z, it := range order {
		if it.ZIndex() != z {
			it.setZIndex(z)
			changed = true
		}
	}
	if changed {
		e.bus.Publish(Event{Type: EventZOrderChanged, ItemID: id, Kind: e.items[id].Kind()})
	}
	return nil
}
