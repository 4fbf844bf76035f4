package engine

import (
	"fmt"
	"slices"

	"github.com/jinzhu/copier"

	"github.com/inamate/infomap/internal/colors"
	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
	"github.com/inamate/infomap/internal/typeid"
)

// duplicateOffset is how far a duplicated area lands from its source.
const duplicateOffset = 20.0

// AddArea places a new info area centered at center, sized and filled from
// the project defaults, above every other item.
func (e *Engine) AddArea(center geom.Point) (string, error) {
	if e.doc == nil {
		return "", ErrNoDocument
	}
	d := e.doc.Defaults
	cfg := document.AreaConfig{
		ID:                   typeid.NewAreaID(),
		CenterX:              center.X,
		CenterY:              center.Y,
		Width:                max(d.AreaWidth, document.MinWidth),
		Height:               max(d.AreaHeight, document.MinHeight),
		Shape:                d.Shape,
		ShowOnHover:          d.ShowOnHover,
		ShowOnHoverConnected: d.ShowOnHoverConnected,
		FillColor:            d.FillColor,
		FillAlpha:            d.FillAlpha,
		ZIndex:               e.topZ(),
	}
	if cfg.Shape != document.ShapeEllipse {
		cfg.Shape = document.ShapeRectangle
	}
	e.doc.InfoAreas = append(e.doc.InfoAreas, cfg)
	e.items[cfg.ID] = newAreaItem(cfg.ID, e.doc, e.bus)
	e.bus.Publish(Event{Type: EventItemAdded, ItemID: cfg.ID, Kind: KindArea})
	return cfg.ID, nil
}

// AddImage places an uploaded image. An empty id is generated and a
// non-positive scale becomes 1.
func (e *Engine) AddImage(cfg document.ImageConfig) (string, error) {
	if e.doc == nil {
		return "", ErrNoDocument
	}
	if cfg.ID == "" {
		cfg.ID = typeid.NewImageID()
	}
	if _, exists := e.items[cfg.ID]; exists {
		return "", fmt.Errorf("add image %s: id in use", cfg.ID)
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	cfg.ZIndex = e.topZ()
	e.doc.Images = append(e.doc.Images, cfg)
	e.items[cfg.ID] = newImageItem(cfg.ID, e.doc, e.bus)
	e.bus.Publish(Event{Type: EventItemAdded, ItemID: cfg.ID, Kind: KindImage})
	return cfg.ID, nil
}

// Delete removes items. Deleting an area also removes every connection
// that references it. Unknown ids are skipped; ErrNotFound is returned
// when none of the ids existed.
func (e *Engine) Delete(ids ...string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	var removed []Event
	for _, id := range ids {
		it, ok := e.items[id]
		if !ok {
			continue
		}
		switch it.Kind() {
		case KindArea:
			conns, _ := e.doc.RemoveArea(id)
			for _, cid := range conns {
				delete(e.items, cid)
				removed = append(removed, Event{Type: EventItemRemoved, ItemID: cid, Kind: KindConnection})
			}
		case KindImage:
			path := ""
			if c := e.doc.Image(id); c != nil {
				path = c.Path
			}
			e.doc.RemoveImage(id)
			removed = append(removed, Event{Type: EventItemRemoved, ItemID: id, Kind: KindImage, Path: path})
			delete(e.items, id)
			continue
		case KindConnection:
			e.doc.RemoveConnection(id)
		}
		delete(e.items, id)
		removed = append(removed, Event{Type: EventItemRemoved, ItemID: id, Kind: it.Kind()})
	}
	if len(removed) == 0 {
		return ErrNotFound
	}

	e.dropFromSelection()
	e.normalizeZ()
	for _, ev := range removed {
		e.bus.Publish(ev)
	}
	return nil
}

// dropFromSelection forgets selected ids that no longer have an item.
func (e *Engine) dropFromSelection() {
	next := slices.DeleteFunc(slices.Clone(e.selection), func(id string) bool {
		_, ok := e.items[id]
		return !ok
	})
	if len(next) != len(e.selection) {
		e.selection = next
		e.bus.Publish(Event{Type: EventSelectionChanged})
	}
}

// Connect joins two distinct areas with a new connection drawn above
// everything else.
func (e *Engine) Connect(source, destination string) (string, error) {
	if e.doc == nil {
		return "", ErrNoDocument
	}
	if _, err := e.area(source); err != nil {
		return "", fmt.Errorf("connect source %s: %w", source, err)
	}
	if _, err := e.area(destination); err != nil {
		return "", fmt.Errorf("connect destination %s: %w", destination, err)
	}
	if source == destination {
		return "", ErrSelfConnection
	}
	if e.doc.FindConnection(source, destination) != nil {
		return "", ErrDuplicateConnection
	}

	cfg := document.ConnectionConfig{
		ID:          typeid.NewConnectionID(),
		Source:      source,
		Destination: destination,
		ZIndex:      e.topZ(),
	}
	e.doc.Connections = append(e.doc.Connections, cfg)
	e.items[cfg.ID] = newConnectionItem(cfg.ID, e.doc, e.areaShape)
	e.bus.Publish(Event{Type: EventItemAdded, ItemID: cfg.ID, Kind: KindConnection})
	return cfg.ID, nil
}

// Disconnect removes the connection between a and b, in either direction.
func (e *Engine) Disconnect(a, b string) error {
	if e.doc == nil {
		return ErrNoDocument
	}
	c := e.doc.FindConnection(a, b)
	if c == nil {
		return ErrNotFound
	}
	return e.Delete(c.ID)
}

// DuplicateArea copies an area, including its text and style binding,
// offset down and to the right, and places it on top.
func (e *Engine) DuplicateArea(id string) (string, error) {
	src, err := e.area(id)
	if err != nil {
		return "", err
	}
	var dup document.AreaConfig
	if err := copier.CopyWithOption(&dup, src.config(), copier.Option{DeepCopy: true}); err != nil {
		return "", fmt.Errorf("duplicate area %s: %w", id, err)
	}
	dup.ID = typeid.NewAreaID()
	dup.CenterX += duplicateOffset
	dup.CenterY += duplicateOffset
	dup.ZIndex = e.topZ()
	e.doc.InfoAreas = append(e.doc.InfoAreas, dup)

	a := newAreaItem(dup.ID, e.doc, e.bus)
	a.binding.Restore(style.ForArea(e.doc.Area(dup.ID)), e.doc.TextStyle(dup.TextStyleRef))
	e.items[dup.ID] = a
	e.bus.Publish(Event{Type: EventItemAdded, ItemID: dup.ID, Kind: KindArea})
	return dup.ID, nil
}

// MoveTo places an area or image so its center is at center.
func (e *Engine) MoveTo(id string, center geom.Point) error {
	switch it := e.items[id].(type) {
	case *AreaItem:
		c := it.config()
		c.CenterX, c.CenterY = center.X, center.Y
		it.syncFromConfig()
		e.bus.Publish(Event{Type: EventItemMoved, ItemID: id, Kind: KindArea})
	case *ImageItem:
		c := it.config()
		c.CenterX, c.CenterY = center.X, center.Y
		e.bus.Publish(Event{Type: EventItemMoved, ItemID: id, Kind: KindImage})
	case nil:
		return ErrNotFound
	default:
		return fmt.Errorf("move %s: connections follow their areas", id)
	}
	return nil
}

// SetImageScale rescales an image about its center.
func (e *Engine) SetImageScale(id string, scale float64) error {
	it, ok := e.items[id].(*ImageItem)
	if !ok {
		return ErrNotFound
	}
	if scale <= 0 {
		return fmt.Errorf("scale must be positive, got %v", scale)
	}
	it.setScale(scale)
	e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: id, Kind: KindImage})
	return nil
}

// Area property keys accepted by SetAreaProperty besides the text style
// properties.
const (
	PropText                 = "text"
	PropShape                = "shape"
	PropShowOnHover          = "show_on_hover"
	PropShowOnHoverConnected = "show_on_hover_connected"
	PropFillColor            = "fill_color"
	PropFillAlpha            = "fill_alpha"
	PropWidth                = "width"
	PropHeight               = "height"
	PropAngle                = "angle"
)

// SetAreaProperty is a manual edit of one area property. Edits to style
// properties keep the style binding; a later detach leaves them alone.
func (e *Engine) SetAreaProperty(id, key string, value any) error {
	a, err := e.area(id)
	if err != nil {
		return err
	}
	c := a.config()

	if p := style.Property(key); style.Text.Has(p) {
		v, err := style.Coerce(p, value)
		if err != nil {
			return err
		}
		style.ForArea(c).Set(p, v)
		e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: id, Kind: KindArea})
		return nil
	}

	switch key {
	case PropText:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", key, value)
		}
		c.Text = s
	case PropShape:
		s, _ := value.(string)
		if s != document.ShapeRectangle && s != document.ShapeEllipse {
			return fmt.Errorf("%s: invalid value %v", key, value)
		}
		c.Shape = s
	case PropShowOnHover, PropShowOnHoverConnected:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%s: expected bool, got %T", key, value)
		}
		if key == PropShowOnHover {
			c.ShowOnHover = b
		} else {
			c.ShowOnHoverConnected = b
		}
	case PropFillColor:
		s, _ := value.(string)
		hex, err := colors.Normalize(s)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		c.FillColor = hex
	case PropFillAlpha, PropWidth, PropHeight, PropAngle:
		f, ok := toNumber(value)
		if !ok {
			return fmt.Errorf("%s: expected number, got %T", key, value)
		}
		switch key {
		case PropFillAlpha:
			c.FillAlpha = colors.ClampAlpha(f)
		case PropWidth:
			c.Width = max(f, document.MinWidth)
		case PropHeight:
			c.Height = max(f, document.MinHeight)
		case PropAngle:
			c.Angle = f
		}
		a.syncFromConfig()
	default:
		return fmt.Errorf("unknown area property %q", key)
	}
	e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: id, Kind: KindArea})
	return nil
}

// SetConnectionProperty is a manual edit of one line style property.
func (e *Engine) SetConnectionProperty(id, key string, value any) error {
	ci, ok := e.items[id].(*ConnectionItem)
	if !ok {
		return ErrNotFound
	}
	p := style.Property(key)
	if !style.Line.Has(p) {
		return fmt.Errorf("unknown connection property %q", key)
	}
	v, err := style.Coerce(p, value)
	if err != nil {
		return err
	}
	style.ForConnection(ci.config()).Set(p, v)
	e.bus.Publish(Event{Type: EventPropertiesChanged, ItemID: id, Kind: KindConnection})
	return nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
