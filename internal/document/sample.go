package document

import (
	"time"

	"github.com/inamate/infomap/internal/typeid"
)

// NewSampleProject builds a small demo map: two hover areas joined by a
// connection and one always-visible caption.
func NewSampleProject(name string) *Project {
	now := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	d := BuiltinDefaults()
	p := NewEmptyProject(name, d)
	p.LastModified = now

	harbour := typeid.NewAreaID()
	lighthouse := typeid.NewAreaID()
	caption := typeid.NewAreaID()

	p.TextStyles = append(p.TextStyles, StyleConfig{
		Name:                "Heading",
		FontColor:           Ptr("#1A1A2E"),
		FontSize:            Ptr(18),
		HorizontalAlignment: Ptr(AlignCenter),
		VerticalAlignment:   Ptr(AlignCenter),
		Padding:             Ptr(8),
	})
	p.LineStyles = append(p.LineStyles, StyleConfig{
		Name:      "Dashed route",
		LineColor: Ptr("#E94560"),
		Thickness: Ptr(3.0),
		Opacity:   Ptr(0.8),
	})

	p.InfoAreas = append(p.InfoAreas,
		AreaConfig{
			ID:          harbour,
			CenterX:     300,
			CenterY:     240,
			Width:       180,
			Height:      90,
			Shape:       ShapeRectangle,
			Text:        "# Harbour\nBoats leave every **hour**.",
			ShowOnHover: true,
			FillColor:   "#FFFFFF",
			FillAlpha:   0.8,
			ZIndex:      0,
		},
		AreaConfig{
			ID:                   lighthouse,
			CenterX:              760,
			CenterY:              320,
			Width:                140,
			Height:               140,
			Angle:                15,
			Shape:                ShapeEllipse,
			Text:                 "## Lighthouse\nBuilt in 1871.",
			ShowOnHoverConnected: true,
			FillColor:            "#F5E6CA",
			FillAlpha:            0.9,
			ZIndex:               1,
		},
		AreaConfig{
			ID:           caption,
			CenterX:      640,
			CenterY:      60,
			Width:        320,
			Height:       48,
			Shape:        ShapeRectangle,
			Text:         "Hover the harbour",
			FillColor:    "#FFFFFF",
			FillAlpha:    0.6,
			FontColor:    Ptr("#1A1A2E"),
			FontSize:     Ptr(18),
			Padding:      Ptr(8),
			TextStyleRef: "Heading",
			ZIndex:       2,
		},
	)
	p.InfoAreas[2].HorizontalAlignment = Ptr(AlignCenter)
	p.InfoAreas[2].VerticalAlignment = Ptr(AlignCenter)

	p.Connections = append(p.Connections, ConnectionConfig{
		ID:           typeid.NewConnectionID(),
		Source:       harbour,
		Destination:  lighthouse,
		LineColor:    Ptr("#E94560"),
		Thickness:    Ptr(3.0),
		Opacity:      Ptr(0.8),
		LineStyleRef: "Dashed route",
		ZIndex:       3,
	})

	return p
}
