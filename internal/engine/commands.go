package engine

import (
	"encoding/json"

	"github.com/inamate/infomap/internal/colors"
	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

// DrawCommand is a single drawing operation for the editor canvas.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "image", "area", "line", "handle", "rotateHandle", "outline"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Local-space path for "area" and "outline"
	Fill        string        `json:"fill,omitempty"`        // CSS color
	Stroke      string        `json:"stroke,omitempty"`      // CSS color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha

	// Images
	ImagePath   string  `json:"imagePath,omitempty"`
	ImageWidth  float64 `json:"imageWidth,omitempty"`
	ImageHeight float64 `json:"imageHeight,omitempty"`
	Placeholder bool    `json:"placeholder,omitempty"`

	// Lines and handles, in scene space
	From *geom.Point `json:"from,omitempty"`
	To   *geom.Point `json:"to,omitempty"`
	At   *geom.Point `json:"at,omitempty"`

	// Area text
	Text   string      `json:"text,omitempty"`
	Font   *TextLayout `json:"font,omitempty"`
	Handle string      `json:"handle,omitempty"`
}

// TextLayout carries the resolved text style of an area.
type TextLayout struct {
	Color               string `json:"color"`
	Size                int    `json:"size"`
	Padding             int    `json:"padding"`
	HorizontalAlignment string `json:"horizontalAlignment"`
	VerticalAlignment   string `json:"verticalAlignment"`
}

// PathCommand is a single path segment.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

const (
	selectionColor  = "#1E90FF"
	handleSize      = 6.0
	outlineWidth    = 1.0
	ellipseBezierK  = 0.5522847498
	selectedLineGap = 2.0
)

// Render compiles the scene into draw commands in painter's order, followed
// by selection chrome.
func (e *Engine) Render() []DrawCommand {
	if e.doc == nil {
		return nil
	}
	var cmds []DrawCommand
	for _, it := range e.paintOrder() {
		switch it := it.(type) {
		case *ImageItem:
			cmds = append(cmds, e.imageCommand(it))
		case *AreaItem:
			cmds = append(cmds, e.areaCommand(it))
		case *ConnectionItem:
			cmds = append(cmds, e.lineCommand(it))
		}
	}
	for _, id := range e.selection {
		cmds = append(cmds, e.selectionCommands(e.items[id])...)
	}
	return cmds
}

// RenderJSON is Render serialized for the browser editor.
func (e *Engine) RenderJSON() string {
	data, err := json.Marshal(e.Render())
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (e *Engine) imageCommand(it *ImageItem) DrawCommand {
	c := it.config()
	w, h := it.Size()
	pos := it.Pos()
	return DrawCommand{
		Op:          "image",
		ObjectID:    it.ID(),
		Transform:   geom.Translate(pos.X, pos.Y).ToSlice(),
		Opacity:     1,
		ImagePath:   c.Path,
		ImageWidth:  w,
		ImageHeight: h,
		Placeholder: !c.HasDimensions(),
	}
}

func (e *Engine) areaCommand(a *AreaItem) DrawCommand {
	c := a.config()
	w, h := a.Size()
	t := style.ResolveAll(style.ForArea(c), e.doc.TextStyle(c.TextStyleRef), e.doc.Defaults)
	return DrawCommand{
		Op:        "area",
		ObjectID:  a.ID(),
		Transform: a.SceneTransform().ToSlice(),
		Path:      shapePath(c.Shape, w, h),
		Fill:      colors.CSSRGBA(c.FillColor, c.FillAlpha),
		Opacity:   1,
		Text:      c.Text,
		Font: &TextLayout{
			Color:               t[style.FontColor].(string),
			Size:                t[style.FontSize].(int),
			Padding:             t[style.Padding].(int),
			HorizontalAlignment: t[style.HorizontalAlignment].(string),
			VerticalAlignment:   t[style.VerticalAlignment].(string),
		},
	}
}

func (e *Engine) lineCommand(ci *ConnectionItem) DrawCommand {
	c := ci.config()
	v := style.ResolveAll(style.ForConnection(c), e.doc.LineStyle(c.LineStyleRef), e.doc.Defaults)
	p1, p2 := ci.Endpoints()
	return DrawCommand{
		Op:          "line",
		ObjectID:    ci.ID(),
		Stroke:      v[style.LineColor].(string),
		StrokeWidth: v[style.Thickness].(float64),
		Opacity:     v[style.Opacity].(float64),
		From:        &p1,
		To:          &p2,
	}
}

// selectionCommands draws the outline of a selected item; areas also get
// their resize and rotate handles.
func (e *Engine) selectionCommands(it Item) []DrawCommand {
	switch it := it.(type) {
	case *AreaItem:
		w, h := it.Size()
		cmds := []DrawCommand{{
			Op:          "outline",
			ObjectID:    it.ID(),
			Transform:   it.SceneTransform().ToSlice(),
			Path:        shapePath(document.ShapeRectangle, w, h),
			Stroke:      selectionColor,
			StrokeWidth: outlineWidth,
		}}
		for _, hd := range AllHandles {
			at := it.Corner(hd)
			cmds = append(cmds, DrawCommand{
				Op:       "handle",
				ObjectID: it.ID(),
				Handle:   hd.String(),
				At:       &at,
				Fill:     selectionColor,
				Transform: geom.Translate(at.X, at.Y).
					Multiply(geom.RotateDegrees(it.Angle())).
					Multiply(geom.Translate(-handleSize/2, -handleSize/2)).ToSlice(),
				Path: shapePath(document.ShapeRectangle, handleSize, handleSize),
			})
		}
		rot := it.RotateHandlePos()
		cmds = append(cmds, DrawCommand{
			Op:       "rotateHandle",
			ObjectID: it.ID(),
			At:       &rot,
			Fill:     selectionColor,
			Path:     circlePath(rot, RotateHandleRadius),
		})
		return cmds
	case *ImageItem:
		b := it.Bounds()
		return []DrawCommand{{
			Op:          "outline",
			ObjectID:    it.ID(),
			Transform:   geom.Translate(b.X, b.Y).ToSlice(),
			Path:        shapePath(document.ShapeRectangle, b.Width, b.Height),
			Stroke:      selectionColor,
			StrokeWidth: outlineWidth,
		}}
	case *ConnectionItem:
		p1, p2 := it.Endpoints()
		return []DrawCommand{{
			Op:          "line",
			ObjectID:    it.ID(),
			Stroke:      selectionColor,
			StrokeWidth: selectedLineGap,
			Opacity:     0.5,
			From:        &p1,
			To:          &p2,
		}}
	}
	return nil
}

// shapePath builds a local-space path for a w×h box at the origin.
func shapePath(shape string, w, h float64) []PathCommand {
	if shape == document.ShapeEllipse {
		return ellipsePath(w/2, h/2, w/2, h/2)
	}
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

func circlePath(c geom.Point, r float64) []PathCommand {
	return ellipsePath(c.X, c.Y, r, r)
}

// ellipsePath approximates an ellipse with four cubic Bézier arcs.
func ellipsePath(cx, cy, rx, ry float64) []PathCommand {
	kx, ky := rx*ellipseBezierK, ry*ellipseBezierK
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + ky, cx + kx, cy + ry, cx, cy + ry},
		{"C", cx - kx, cy + ry, cx - rx, cy + ky, cx - rx, cy},
		{"C", cx - rx, cy - ky, cx - kx, cy - ry, cx, cy - ry},
		{"C", cx + kx, cy - ry, cx + rx, cy - ky, cx + rx, cy},
		{"Z"},
	}
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.X,
		"y":      r.Y,
		"width":  r.Width,
		"height": r.Height,
	})
	return string(data)
}
