package document

import (
	"encoding/json"
	"slices"

	"github.com/jinzhu/copier"
)

const (
	ShapeRectangle = "rectangle"
	ShapeEllipse   = "ellipse"

	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
	AlignTop    = "top"
	AlignBottom = "bottom"
)

// Minimum info area size in scene pixels.
const (
	MinWidth  = 20.0
	MinHeight = 20.0
)

// PlaceholderSize stands in for the pixel size of an image whose file
// cannot be read.
const PlaceholderSize = 100

// Project is the root of config.json.
type Project struct {
	ProjectName  string             `json:"project_name,omitempty"`
	Background   Background         `json:"background"`
	Images       []ImageConfig      `json:"images"`
	InfoAreas    []AreaConfig       `json:"info_areas"`
	Connections  []ConnectionConfig `json:"connections"`
	TextStyles   []StyleConfig      `json:"text_styles"`
	LineStyles   []StyleConfig      `json:"line_styles"`
	Defaults     Defaults           `json:"defaults"`
	LastModified string             `json:"last_modified,omitempty"`
}

type Background struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Color  string `json:"color"`
}

type ImageConfig struct {
	ID             string  `json:"id"`
	Path           string  `json:"path"`
	CenterX        float64 `json:"center_x"`
	CenterY        float64 `json:"center_y"`
	Scale          float64 `json:"scale"`
	OriginalWidth  int     `json:"original_width,omitempty"`
	OriginalHeight int     `json:"original_height,omitempty"`
	ZIndex         int     `json:"z_index"`
}

// DisplaySize is original * scale, using PlaceholderSize for unknown dimensions.
func (c *ImageConfig) DisplaySize() (float64, float64) {
	w, h := c.OriginalWidth, c.OriginalHeight
	if w <= 0 || h <= 0 {
		w, h = PlaceholderSize, PlaceholderSize
	}
	return float64(w) * c.Scale, float64(h) * c.Scale
}

// HasDimensions reports whether the original pixel size is known.
func (c *ImageConfig) HasDimensions() bool {
	return c.OriginalWidth > 0 && c.OriginalHeight > 0
}

// AreaConfig is an info area. Placement is center plus size; the top-left
// corner is always derived.
type AreaConfig struct {
	ID                   string  `json:"id"`
	CenterX              float64 `json:"center_x"`
	CenterY              float64 `json:"center_y"`
	Width                float64 `json:"width"`
	Height               float64 `json:"height"`
	Angle                float64 `json:"angle"`
	Shape                string  `json:"shape"`
	Text                 string  `json:"text"`
	ShowOnHover          bool    `json:"show_on_hover"`
	ShowOnHoverConnected bool    `json:"show_on_hover_connected"`
	FontColor            *string `json:"font_color,omitempty"`
	FontSize             *int    `json:"font_size,omitempty"`
	Padding              *int    `json:"padding,omitempty"`
	HorizontalAlignment  *string `json:"horizontal_alignment,omitempty"`
	VerticalAlignment    *string `json:"vertical_alignment,omitempty"`
	FillColor            string  `json:"fill_color"`
	FillAlpha            float64 `json:"fill_alpha"`
	TextStyleRef         string  `json:"text_style_ref,omitempty"`
	ZIndex               int     `json:"z_index"`
}

// HiddenAtLoad reports whether the area starts invisible in an export.
func (a *AreaConfig) HiddenAtLoad() bool {
	return a.ShowOnHover || a.ShowOnHoverConnected
}

func (a *AreaConfig) UnmarshalJSON(data []byte) error {
	type plain AreaConfig
	d := BuiltinDefaults()
	p := plain{
		Shape:       ShapeRectangle,
		ShowOnHover: true,
		FillColor:   d.FillColor,
		FillAlpha:   d.FillAlpha,
		Width:       d.AreaWidth,
		Height:      d.AreaHeight,
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Shape != ShapeEllipse {
		p.Shape = ShapeRectangle
	}
	p.Width = max(p.Width, MinWidth)
	p.Height = max(p.Height, MinHeight)
	*a = AreaConfig(p)
	return nil
}

type ConnectionConfig struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	Destination  string   `json:"destination"`
	Thickness    *float64 `json:"thickness,omitempty"`
	LineColor    *string  `json:"line_color,omitempty"`
	Opacity      *float64 `json:"opacity,omitempty"`
	ZIndex       int      `json:"z_index"`
	LineStyleRef string   `json:"line_style_ref,omitempty"`
}

// Touches reports whether areaID is either endpoint.
func (c *ConnectionConfig) Touches(areaID string) bool {
	return c.Source == areaID || c.Destination == areaID
}

// Other returns the endpoint opposite areaID.
func (c *ConnectionConfig) Other(areaID string) string {
	if c.Source == areaID {
		return c.Destination
	}
	return c.Source
}

// StyleConfig is a named bag of presentation properties. Text styles use the
// font and alignment fields, line styles the line fields; a nil field is not
// defined by the style.
type StyleConfig struct {
	Name                string   `json:"name"`
	FontColor           *string  `json:"font_color,omitempty"`
	FontSize            *int     `json:"font_size,omitempty"`
	HorizontalAlignment *string  `json:"horizontal_alignment,omitempty"`
	VerticalAlignment   *string  `json:"vertical_alignment,omitempty"`
	Padding             *int     `json:"padding,omitempty"`
	LineColor           *string  `json:"line_color,omitempty"`
	Thickness           *float64 `json:"thickness,omitempty"`
	Opacity             *float64 `json:"opacity,omitempty"`
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	v := plain{
		Background: Background{Width: 1280, Height: 720, Color: "#FFFFFF"},
		Defaults:   BuiltinDefaults(),
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Project(v)
	p.ensureCollections()
	return nil
}

func (p *Project) ensureCollections() {
	if p.Images == nil {
		p.Images = []ImageConfig{}
	}
	if p.InfoAreas == nil {
		p.InfoAreas = []AreaConfig{}
	}
	if p.Connections == nil {
		p.Connections = []ConnectionConfig{}
	}
	if p.TextStyles == nil {
		p.TextStyles = []StyleConfig{}
	}
	if p.LineStyles == nil {
		p.LineStyles = []StyleConfig{}
	}
}

func (c *ImageConfig) UnmarshalJSON(data []byte) error {
	type plain ImageConfig
	v := plain{Scale: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Scale <= 0 {
		v.Scale = 1
	}
	*c = ImageConfig(v)
	return nil
}

// NewEmptyProject creates the document for a new project.
func NewEmptyProject(name string, defaults Defaults) *Project {
	p := &Project{
		ProjectName: name,
		Background:  Background{Width: 1280, Height: 720, Color: "#FFFFFF"},
		Defaults:    defaults,
	}
	p.ensureCollections()
	return p
}

// Clone returns a deep copy.
func (p *Project) Clone() (*Project, error) {
	var out Project
	if err := copier.CopyWithOption(&out, p, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	out.ensureCollections()
	return &out, nil
}

// --- Lookups. Returned pointers are valid until the next structural change. ---

func (p *Project) Image(id string) *ImageConfig {
	for i := range p.Images {
		if p.Images[i].ID == id {
			return &p.Images[i]
		}
	}
	return nil
}

func (p *Project) Area(id string) *AreaConfig {
	for i := range p.InfoAreas {
		if p.InfoAreas[i].ID == id {
			return &p.InfoAreas[i]
		}
	}
	return nil
}

func (p *Project) Connection(id string) *ConnectionConfig {
	for i := range p.Connections {
		if p.Connections[i].ID == id {
			return &p.Connections[i]
		}
	}
	return nil
}

// FindConnection returns the connection joining a and b in either direction.
func (p *Project) FindConnection(a, b string) *ConnectionConfig {
	for i := range p.Connections {
		c := &p.Connections[i]
		if (c.Source == a && c.Destination == b) || (c.Source == b && c.Destination == a) {
			return c
		}
	}
	return nil
}

// ConnectionsOf lists the ids of connections touching areaID.
func (p *Project) ConnectionsOf(areaID string) []string {
	var ids []string
	for _, c := range p.Connections {
		if c.Touches(areaID) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (p *Project) TextStyle(name string) *StyleConfig {
	return findStyle(p.TextStyles, name)
}

func (p *Project) LineStyle(name string) *StyleConfig {
	return findStyle(p.LineStyles, name)
}

func findStyle(list []StyleConfig, name string) *StyleConfig {
	if name == "" {
		return nil
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	return nil
}

// --- Structural mutations ---

func (p *Project) RemoveImage(id string) bool {
	n := len(p.Images)
	p.Images = slices.DeleteFunc(p.Images, func(c ImageConfig) bool { return c.ID == id })
	return len(p.Images) != n
}

// RemoveArea deletes the area and every connection referencing it in one
// step, returning the ids of the removed connections.
func (p *Project) RemoveArea(id string) (removedConnections []string, ok bool) {
	n := len(p.InfoAreas)
	p.InfoAreas = slices.DeleteFunc(p.InfoAreas, func(c AreaConfig) bool { return c.ID == id })
	if len(p.InfoAreas) == n {
		return nil, false
	}
	removedConnections = p.ConnectionsOf(id)
	p.Connections = slices.DeleteFunc(p.Connections, func(c ConnectionConfig) bool { return c.Touches(id) })
	return removedConnections, true
}

func (p *Project) RemoveConnection(id string) bool {
	n := len(p.Connections)
	p.Connections = slices.DeleteFunc(p.Connections, func(c ConnectionConfig) bool { return c.ID == id })
	return len(p.Connections) != n
}

// Dangling returns connections whose endpoints do not resolve to areas.
func (p *Project) Dangling() []string {
	var ids []string
	for _, c := range p.Connections {
		if c.Source == c.Destination || p.Area(c.Source) == nil || p.Area(c.Destination) == nil {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
