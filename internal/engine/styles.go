package engine

import (
	"fmt"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/style"
)

// styled is the style view of an area or connection.
type styled struct {
	id      string
	kind    Kind
	target  style.Target
	binding *style.Binding
}

func (e *Engine) styled(id string) (styled, error) {
	switch it := e.items[id].(type) {
	case *AreaItem:
		return styled{id, KindArea, style.ForArea(it.config()), &it.binding}, nil
	case *ConnectionItem:
		return styled{id, KindConnection, style.ForConnection(it.config()), &it.binding}, nil
	case nil:
		return styled{}, ErrNotFound
	}
	return styled{}, fmt.Errorf("item %s has no style properties", id)
}

// boundStyle is the style object the target references, if it still exists.
func (e *Engine) boundStyle(s styled) *document.StyleConfig {
	return e.styles.Lookup(s.target.Kind(), s.target.StyleRef())
}

// ApplyStyle binds the named style to an area or connection. An empty name
// detaches the current style.
func (e *Engine) ApplyStyle(id, name string) error {
	s, err := e.styled(id)
	if err != nil {
		return err
	}
	var st *document.StyleConfig
	if name != "" {
		if st = e.styles.Lookup(s.target.Kind(), name); st == nil {
			return fmt.Errorf("apply style %q: %w", name, style.ErrStyleNotFound)
		}
	}
	s.binding.Apply(s.target, st, e.doc.Defaults)
	e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: id, Kind: s.kind})
	return nil
}

// Resolved returns the effective style properties of an area or connection.
func (e *Engine) Resolved(id string) (style.Values, error) {
	s, err := e.styled(id)
	if err != nil {
		return nil, err
	}
	return style.ResolveAll(s.target, e.boundStyle(s), e.doc.Defaults), nil
}

// SaveStyle stores the current property values of item fromID (its own
// config, falling back to defaults) as a named style and binds the item to
// it. Replacing an existing style needs overwrite; the new values are then
// re-applied to every item bound to that name.
func (e *Engine) SaveStyle(fromID, name string, overwrite bool) error {
	s, err := e.styled(fromID)
	if err != nil {
		return err
	}
	k := s.target.Kind()
	values := style.ResolveAll(s.target, nil, e.doc.Defaults)

	st, replaced, err := e.styles.Save(k, name, values, overwrite)
	if err != nil {
		return fmt.Errorf("save style %q: %w", name, err)
	}

	if replaced {
		for _, it := range e.docOrder() {
			other, err := e.styled(it.ID())
			if err != nil || other.target.Kind() != k || other.target.StyleRef() != st.Name || other.id == fromID {
				continue
			}
			other.binding.Apply(other.target, st, e.doc.Defaults)
			e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: other.id, Kind: other.kind})
		}
	}
	s.binding.Apply(s.target, st, e.doc.Defaults)
	e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: fromID, Kind: s.kind})
	e.bus.Publish(Event{Type: EventStylesChanged})
	return nil
}

// DeleteStyle removes a named style. Bound items keep their current values
// and become unstyled.
func (e *Engine) DeleteStyle(k style.Kind, name string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	if err := e.styles.Delete(k, name); err != nil {
		return fmt.Errorf("delete style %q: %w", name, err)
	}
	for _, it := range e.docOrder() {
		s, err := e.styled(it.ID())
		if err != nil || s.target.Kind() != k || s.target.StyleRef() != name {
			continue
		}
		s.binding.Restore(s.target, nil)
		s.target.SetStyleRef("")
		e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: s.id, Kind: s.kind})
	}
	e.bus.Publish(Event{Type: EventStylesChanged})
	return nil
}

// Styles lists the styles of kind k.
func (e *Engine) Styles(k style.Kind) []document.StyleConfig {
	if e.styles == nil {
		return nil
	}
	return e.styles.Styles(k)
}

// StyleLabel names the item's current property values for a style picker:
// "Default", a style name, or "Custom". Manual edits made after a style
// was applied make the label "Custom".
func (e *Engine) StyleLabel(id string) (string, error) {
	s, err := e.styled(id)
	if err != nil {
		return "", err
	}
	k := s.target.Kind()
	values := style.ResolveAll(s.target, nil, e.doc.Defaults)
	return style.Match(k, values, e.doc.Defaults, e.styles.Styles(k)), nil
}
