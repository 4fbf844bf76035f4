package style

import "github.com/inamate/infomap/internal/document"

// Target is an item config that carries stylable properties and a soft
// reference to a named style.
type Target interface {
	Kind() Kind
	Get(p Property) (any, bool)
	Set(p Property, v any)
	StyleRef() string
	SetStyleRef(name string)
}

// ForArea adapts an info area config.
func ForArea(c *document.AreaConfig) Target { return areaTarget{c} }

// ForConnection adapts a connection config.
func ForConnection(c *document.ConnectionConfig) Target { return connectionTarget{c} }

type areaTarget struct{ c *document.AreaConfig }

func (t areaTarget) Kind() Kind { return Text }

func (t areaTarget) Get(p Property) (any, bool) {
	switch p {
	case FontColor:
		return deref(t.c.FontColor)
	case FontSize:
		return deref(t.c.FontSize)
	case HorizontalAlignment:
		return deref(t.c.HorizontalAlignment)
	case VerticalAlignment:
		return deref(t.c.VerticalAlignment)
	case Padding:
		return deref(t.c.Padding)
	}
	return nil, false
}

func (t areaTarget) Set(p Property, v any) {
	switch p {
	case FontColor:
		t.c.FontColor = ptrOf[string](v)
	case FontSize:
		t.c.FontSize = ptrOf[int](v)
	case HorizontalAlignment:
		t.c.HorizontalAlignment = ptrOf[string](v)
	case VerticalAlignment:
		t.c.VerticalAlignment = ptrOf[string](v)
	case Padding:
		t.c.Padding = ptrOf[int](v)
	}
}

func (t areaTarget) StyleRef() string        { return t.c.TextStyleRef }
func (t areaTarget) SetStyleRef(name string) { t.c.TextStyleRef = name }

type connectionTarget struct{ c *document.ConnectionConfig }

func (t connectionTarget) Kind() Kind { return Line }

func (t connectionTarget) Get(p Property) (any, bool) {
	switch p {
	case LineColor:
		return deref(t.c.LineColor)
	case Thickness:
		return deref(t.c.Thickness)
	case Opacity:
		return deref(t.c.Opacity)
	}
	return nil, false
}

func (t connectionTarget) Set(p Property, v any) {
	switch p {
	case LineColor:
		t.c.LineColor = ptrOf[string](v)
	case Thickness:
		t.c.Thickness = ptrOf[float64](v)
	case Opacity:
		t.c.Opacity = ptrOf[float64](v)
	}
}

func (t connectionTarget) StyleRef() string        { return t.c.LineStyleRef }
func (t connectionTarget) SetStyleRef(name string) { t.c.LineStyleRef = name }
