// Package style resolves stylable item properties against named styles,
// the item's own config and the application defaults.
package style

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/inamate/infomap/internal/document"
)

// Kind selects which style collection and property set applies.
type Kind int

const (
	Text Kind = iota
	Line
)

func (k Kind) String() string {
	if k == Line {
		return "line"
	}
	return "text"
}

// ParseKind accepts "text" or "line".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text":
		return Text, nil
	case "line":
		return Line, nil
	}
	return Text, fmt.Errorf("unknown style kind %q", s)
}

// Property names match the config.json keys.
type Property string

const (
	FontColor           Property = "font_color"
	FontSize            Property = "font_size"
	HorizontalAlignment Property = "horizontal_alignment"
	VerticalAlignment   Property = "vertical_alignment"
	Padding             Property = "padding"
	LineColor           Property = "line_color"
	Thickness           Property = "thickness"
	Opacity             Property = "opacity"
)

var (
	textProperties = []Property{FontColor, FontSize, HorizontalAlignment, VerticalAlignment, Padding}
	lineProperties = []Property{LineColor, Thickness, Opacity}
)

// Properties is the fixed property set of a kind, in display order.
func (k Kind) Properties() []Property {
	if k == Line {
		return lineProperties
	}
	return textProperties
}

// Has reports whether p belongs to the kind.
func (k Kind) Has(p Property) bool {
	for _, q := range k.Properties() {
		if q == p {
			return true
		}
	}
	return false
}

// Values maps properties to string, int or float64 values.
type Values map[Property]any

// Coerce converts loosely typed input (JSON numbers, ints for floats) to
// the canonical Go type of p.
func Coerce(p Property, v any) (any, error) {
	switch p {
	case FontColor, LineColor, HorizontalAlignment, VerticalAlignment:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string, got %T", p, v)
		}
		if err := validateEnum(p, s); err != nil {
			return nil, err
		}
		return s, nil
	case FontSize, Padding:
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		return int(math.Round(f)), nil
	case Thickness, Opacity:
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if p == Opacity {
			f = min(max(f, 0), 1)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown property %q", p)
}

func validateEnum(p Property, s string) error {
	switch p {
	case HorizontalAlignment:
		if s != document.AlignLeft && s != document.AlignCenter && s != document.AlignRight {
			return fmt.Errorf("%s: invalid value %q", p, s)
		}
	case VerticalAlignment:
		if s != document.AlignTop && s != document.AlignCenter && s != document.AlignBottom {
			return fmt.Errorf("%s: invalid value %q", p, s)
		}
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

// DefaultValue returns the application default for p.
func DefaultValue(d document.Defaults, p Property) any {
	switch p {
	case FontColor:
		return d.FontColor
	case FontSize:
		return d.FontSize
	case HorizontalAlignment:
		return d.HorizontalAlignment
	case VerticalAlignment:
		return d.VerticalAlignment
	case Padding:
		return d.Padding
	case LineColor:
		return d.LineColor
	case Thickness:
		return d.Thickness
	case Opacity:
		return d.Opacity
	}
	return nil
}

// StyleValue reads p from a style; ok is false when the style leaves it unset.
func StyleValue(s *document.StyleConfig, p Property) (any, bool) {
	if s == nil {
		return nil, false
	}
	switch p {
	case FontColor:
		return deref(s.FontColor)
	case FontSize:
		return deref(s.FontSize)
	case HorizontalAlignment:
		return deref(s.HorizontalAlignment)
	case VerticalAlignment:
		return deref(s.VerticalAlignment)
	case Padding:
		return deref(s.Padding)
	case LineColor:
		return deref(s.LineColor)
	case Thickness:
		return deref(s.Thickness)
	case Opacity:
		return deref(s.Opacity)
	}
	return nil, false
}

// SetStyleValue writes (or with v == nil clears) p on a style.
func SetStyleValue(s *document.StyleConfig, p Property, v any) {
	switch p {
	case FontColor:
		s.FontColor = ptrOf[string](v)
	case FontSize:
		s.FontSize = ptrOf[int](v)
	case HorizontalAlignment:
		s.HorizontalAlignment = ptrOf[string](v)
	case VerticalAlignment:
		s.VerticalAlignment = ptrOf[string](v)
	case Padding:
		s.Padding = ptrOf[int](v)
	case LineColor:
		s.LineColor = ptrOf[string](v)
	case Thickness:
		s.Thickness = ptrOf[float64](v)
	case Opacity:
		s.Opacity = ptrOf[float64](v)
	}
}

func deref[T any](p *T) (any, bool) {
	if p == nil {
		return nil, false
	}
	return *p, true
}

func ptrOf[T any](v any) *T {
	t, ok := v.(T)
	if !ok {
		return nil
	}
	return &t
}
