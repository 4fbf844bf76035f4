package engine

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/style"
)

const eps = 1e-9

func areaCfg(id string, cx, cy, w, h, angle float64, z int) document.AreaConfig {
	d := document.BuiltinDefaults()
	return document.AreaConfig{
		ID:          id,
		CenterX:     cx,
		CenterY:     cy,
		Width:       w,
		Height:      h,
		Angle:       angle,
		Shape:       document.ShapeRectangle,
		ShowOnHover: true,
		FillColor:   d.FillColor,
		FillAlpha:   d.FillAlpha,
		ZIndex:      z,
	}
}

type recorder struct{ events []Event }

func (r *recorder) types() []EventType {
	var out []EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

func newTestEngine(t *testing.T, doc *document.Project) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := NewEngine(nil)
	e.Bus().Subscribe(func(ev Event) { rec.events = append(rec.events, ev) })
	e.Load(doc)
	rec.reset()
	return e, rec
}

func projectWith(areas ...document.AreaConfig) *document.Project {
	doc := document.NewEmptyProject("test", document.BuiltinDefaults())
	doc.InfoAreas = append(doc.InfoAreas, areas...)
	return doc
}

func gesture(e *Engine, from, to geom.Point) {
	e.PointerDown(PointerEvent{Pos: from})
	e.PointerMove(PointerEvent{Pos: to})
	e.PointerUp(PointerEvent{Pos: to})
}

func assertPointNear(t *testing.T, want, got geom.Point, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-6, msgAndArgs...)
}

func TestResizeRightHandleUnrotated(t *testing.T) {
	e, rec := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0)))
	e.Select("a1")
	a := e.Item("a1").(*AreaItem)

	start := a.Corner(HandleRight)
	gesture(e, start, start.Add(geom.Pt(20, 0)))

	w, h := a.Size()
	assert.Equal(t, 120.0, w)
	assert.Equal(t, 50.0, h)
	assertPointNear(t, geom.Pt(50, 75), a.Pos())

	c := e.Document().Area("a1")
	assert.Equal(t, 120.0, c.Width)
	assert.InDelta(t, 110.0, c.CenterX, eps)
	assert.InDelta(t, 100.0, c.CenterY, eps)
	assert.Equal(t, StateIdle, a.State())
	assert.Contains(t, rec.types(), EventPropertiesChanged)
}

func TestResizeLeftHandleRotated45(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 45, 0)))
	e.Select("a1")
	a := e.Item("a1").(*AreaItem)

	rad := geom.Radians(45)
	axisX := geom.Pt(math.Cos(rad), math.Sin(rad))
	topLeft := a.Corner(HandleTopLeft)
	right := a.Corner(HandleRight)

	start := a.Corner(HandleLeft)
	gesture(e, start, start.Add(axisX.Mul(-20)))

	w, h := a.Size()
	assert.InDelta(t, 120.0, w, eps)
	assert.InDelta(t, 50.0, h, eps)

	shift := a.Corner(HandleTopLeft).Sub(topLeft)
	assert.InDelta(t, -20*math.Cos(rad), shift.X, 1e-6)
	assert.InDelta(t, -20*math.Sin(rad), shift.Y, 1e-6)
	assertPointNear(t, right, a.Corner(HandleRight), "opposite edge must not move")
}

func TestResizeKeepsOppositeCornerFixed(t *testing.T) {
	angles := []float64{0, 30, 45, 90, 135, 180, 217, -60}
	for _, angle := range angles {
		for _, hd := range AllHandles {
			t.Run(fmt.Sprintf("%s@%v", hd, angle), func(t *testing.T) {
				e, _ := newTestEngine(t, projectWith(areaCfg("a1", 300, 300, 100, 50, angle, 0)))
				e.Select("a1")
				a := e.Item("a1").(*AreaItem)

				fixed := a.Corner(hd.Opposite())
				start := a.Corner(hd)
				e.PointerDown(PointerEvent{Pos: start})
				require.Equal(t, StateResizing, a.State())
				require.Equal(t, hd, a.Handle())
				assert.False(t, a.Movable(), "dragging is suspended while resizing")

				e.PointerMove(PointerEvent{Pos: start.Add(geom.Pt(13, -17))})
				assertPointNear(t, fixed, a.Corner(hd.Opposite()))
				e.PointerUp(PointerEvent{Pos: start.Add(geom.Pt(13, -17))})

				w, h := a.Size()
				assert.GreaterOrEqual(t, w, document.MinWidth)
				assert.GreaterOrEqual(t, h, document.MinHeight)
				assert.Equal(t, geom.Pt(w/2, h/2), a.TransformOrigin())
				assert.True(t, a.Movable())
				assertPointNear(t, fixed, a.Corner(hd.Opposite()))

				c := e.Document().Area("a1")
				assertPointNear(t, geom.Pt(c.CenterX, c.CenterY), a.Center())
				assertPointNear(t, a.Pos(), geom.Pt(c.CenterX-c.Width/2, c.CenterY-c.Height/2))
			})
		}
	}
}

func TestResizeClampsToMinimum(t *testing.T) {
	for _, hd := range AllHandles {
		t.Run(hd.String(), func(t *testing.T) {
			e, _ := newTestEngine(t, projectWith(areaCfg("a1", 300, 300, 100, 50, 30, 0)))
			e.Select("a1")
			a := e.Item("a1").(*AreaItem)
			fixed := a.Corner(hd.Opposite())

			// Drag the handle far past the opposite side.
			start := a.Corner(hd)
			end := start.Add(fixed.Sub(start).Mul(3))
			gesture(e, start, end)

			w, h := a.Size()
			sw, sh := hd.Signs()
			if sw != 0 {
				assert.Equal(t, document.MinWidth, w)
			}
			if sh != 0 {
				assert.Equal(t, document.MinHeight, h)
			}
			assertPointNear(t, fixed, a.Corner(hd.Opposite()))
		})
	}
}

func TestRotateAroundCenter(t *testing.T) {
	e, rec := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0)))
	e.Select("a1")
	a := e.Item("a1").(*AreaItem)

	center := a.Center()
	start := a.RotateHandlePos()
	assertPointNear(t, geom.Pt(165, 60), start)

	v := start.Sub(center)
	end := center.Add(geom.Pt(-v.Y, v.X))

	e.PointerDown(PointerEvent{Pos: start})
	require.Equal(t, StateRotating, a.State())
	e.PointerMove(PointerEvent{Pos: end})
	e.PointerUp(PointerEvent{Pos: end})

	assert.InDelta(t, 90.0, a.Angle(), 1e-6)
	assert.InDelta(t, 90.0, e.Document().Area("a1").Angle, 1e-6)
	assertPointNear(t, center, a.Center(), "rotation keeps the center")
	assert.Contains(t, rec.types(), EventPropertiesChanged)
}

func TestRotateHandleWinsOverItemBelow(t *testing.T) {
	// a2 sits under a1's rotate handle and is drawn on top.
	e, _ := newTestEngine(t, projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 165, 60, 40, 40, 0, 1),
	))
	e.Select("a1")
	e.PointerDown(PointerEvent{Pos: geom.Pt(165, 60)})

	assert.Equal(t, StateRotating, e.Item("a1").State())
	assert.Equal(t, StateIdle, e.Item("a2").State())
	assert.Equal(t, []string{"a1"}, e.Selection())
}

func TestHandlesInactiveUntilSelected(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0)))
	a := e.Item("a1").(*AreaItem)

	e.PointerDown(PointerEvent{Pos: a.Corner(HandleRight).Sub(geom.Pt(1, 0))})
	assert.Equal(t, StateDragging, a.State())
	assert.Equal(t, []string{"a1"}, e.Selection())
}

func TestDragKeepsCenterInSync(t *testing.T) {
	e, rec := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 20, 0)))
	a := e.Item("a1").(*AreaItem)
	c := e.Document().Area("a1")

	e.PointerDown(PointerEvent{Pos: geom.Pt(100, 100)})
	e.PointerMove(PointerEvent{Pos: geom.Pt(130, 90)})
	assert.InDelta(t, 130.0, c.CenterX, eps)
	assert.InDelta(t, 90.0, c.CenterY, eps)
	assert.Equal(t, []EventType{EventSelectionChanged, EventPositionChanged}, rec.types())

	e.PointerUp(PointerEvent{Pos: geom.Pt(130, 90)})
	assert.Equal(t, EventItemMoved, rec.events[len(rec.events)-1].Type)
	assert.Equal(t, geom.Pt(c.CenterX-c.Width/2, c.CenterY-c.Height/2), a.Pos())
}

func TestGroupDragMovesEverySelectedItem(t *testing.T) {
	doc := projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 400, 100, 100, 50, 0, 1),
	)
	doc.Images = append(doc.Images, document.ImageConfig{ID: "i1", Path: "x.png", CenterX: 100, CenterY: 400, Scale: 1, OriginalWidth: 80, OriginalHeight: 60})
	e, _ := newTestEngine(t, doc)

	e.PointerDown(PointerEvent{Pos: geom.Pt(100, 100)})
	e.PointerUp(PointerEvent{Pos: geom.Pt(100, 100)})
	e.PointerDown(PointerEvent{Pos: geom.Pt(400, 100), Shift: true})
	e.PointerUp(PointerEvent{Pos: geom.Pt(400, 100), Shift: true})
	e.PointerDown(PointerEvent{Pos: geom.Pt(100, 400), Shift: true})
	e.PointerUp(PointerEvent{Pos: geom.Pt(100, 400), Shift: true})
	require.Equal(t, []string{"a1", "a2", "i1"}, e.Selection())

	gesture(e, geom.Pt(400, 100), geom.Pt(410, 120))

	assert.InDelta(t, 110.0, doc.Area("a1").CenterX, eps)
	assert.InDelta(t, 120.0, doc.Area("a1").CenterY, eps)
	assert.InDelta(t, 410.0, doc.Area("a2").CenterX, eps)
	assert.InDelta(t, 110.0, doc.Image("i1").CenterX, eps)
	assert.InDelta(t, 420.0, doc.Image("i1").CenterY, eps)
}

func TestEmptyClickClearsSelection(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0)))
	e.Select("a1")
	e.PointerDown(PointerEvent{Pos: geom.Pt(900, 900)})
	assert.Empty(t, e.Selection())
	assert.False(t, e.Item("a1").Selected())
}

func TestImageDragAndScale(t *testing.T) {
	doc := projectWith()
	doc.Images = append(doc.Images, document.ImageConfig{ID: "i1", Path: "x.png", CenterX: 100, CenterY: 100, Scale: 1})
	e, _ := newTestEngine(t, doc)
	it := e.Item("i1").(*ImageItem)

	w, h := it.Size()
	assert.Equal(t, float64(document.PlaceholderSize), w)
	assert.Equal(t, float64(document.PlaceholderSize), h)

	gesture(e, geom.Pt(100, 100), geom.Pt(110, 105))
	assert.InDelta(t, 110.0, doc.Image("i1").CenterX, eps)
	assert.InDelta(t, 105.0, doc.Image("i1").CenterY, eps)

	require.NoError(t, e.SetImageScale("i1", 2))
	assert.InDelta(t, 110.0, it.Center().X, eps)
	assert.InDelta(t, 105.0, it.Center().Y, eps)
	assert.Equal(t, geom.Pt(10, 5), it.Pos())
	assert.Error(t, e.SetImageScale("i1", 0))
}

func TestImageKeepsCenterWhenDimensionsArrive(t *testing.T) {
	doc := projectWith()
	doc.Images = append(doc.Images, document.ImageConfig{ID: "i1", Path: "plan.png", CenterX: 500, CenterY: 500, Scale: 1})
	e, _ := newTestEngine(t, doc)
	it := e.Item("i1").(*ImageItem)
	assertPointNear(t, geom.Pt(450, 450), it.Pos())

	c := doc.Image("i1")
	c.OriginalWidth, c.OriginalHeight = 400, 200
	assertPointNear(t, geom.Pt(300, 400), it.Pos())
	assertPointNear(t, geom.Pt(500, 500), it.Center())

	gesture(e, geom.Pt(500, 500), geom.Pt(500, 500))
	assert.InDelta(t, 500.0, doc.Image("i1").CenterX, eps)
	assert.InDelta(t, 500.0, doc.Image("i1").CenterY, eps)
	assert.Equal(t, "i1", e.HitTest(geom.Pt(320, 500)))
}

func zSet(e *Engine) []int {
	var z []int
	for _, it := range e.Items() {
		z = append(z, it.ZIndex())
	}
	slices.Sort(z)
	return z
}

func TestZOrderStaysDense(t *testing.T) {
	doc := projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 7),
		areaCfg("a2", 200, 100, 100, 50, 0, 7),
		areaCfg("a3", 300, 100, 100, 50, 0, -3),
	)
	doc.Images = append(doc.Images, document.ImageConfig{ID: "i1", Scale: 1, ZIndex: 40})
	e, rec := newTestEngine(t, doc)

	want := []int{0, 1, 2, 3}
	assert.Equal(t, want, zSet(e))
	assert.Equal(t, 0, doc.Area("a3").ZIndex)

	ops := []func(string) error{e.Raise, e.Lower, e.BringToFront, e.SendToBack}
	ids := []string{"a1", "a2", "a3", "i1"}
	for i := 0; i < 20; i++ {
		require.NoError(t, ops[i%len(ops)](ids[(i*3)%len(ids)]))
		assert.Equal(t, want, zSet(e))
	}
	assert.Contains(t, rec.types(), EventZOrderChanged)

	require.NoError(t, e.BringToFront("a3"))
	assert.Equal(t, 3, doc.Area("a3").ZIndex)
	require.NoError(t, e.SendToBack("a3"))
	assert.Equal(t, 0, doc.Area("a3").ZIndex)
	assert.ErrorIs(t, e.Raise("missing"), ErrNotFound)
}

func TestHitTestTopmost(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 120, 100, 100, 50, 0, 1),
	))
	assert.Equal(t, "a2", e.HitTest(geom.Pt(110, 100)))
	require.NoError(t, e.BringToFront("a1"))
	assert.Equal(t, "a1", e.HitTest(geom.Pt(110, 100)))
	assert.Equal(t, "", e.HitTest(geom.Pt(500, 500)))
}

func TestEllipseHitTest(t *testing.T) {
	cfg := areaCfg("a1", 100, 100, 100, 50, 0, 0)
	cfg.Shape = document.ShapeEllipse
	e, _ := newTestEngine(t, projectWith(cfg))
	assert.Equal(t, "a1", e.HitTest(geom.Pt(100, 100)))
	assert.Equal(t, "", e.HitTest(geom.Pt(52, 77)), "bounding box corner is outside the ellipse")
}

func TestDeleteAreaCascadesConnections(t *testing.T) {
	e, rec := newTestEngine(t, projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 300, 100, 100, 50, 0, 1),
		areaCfg("a3", 500, 100, 100, 50, 0, 2),
	))
	c12, err := e.Connect("a1", "a2")
	require.NoError(t, err)
	c23, err := e.Connect("a2", "a3")
	require.NoError(t, err)
	c13, err := e.Connect("a1", "a3")
	require.NoError(t, err)
	e.Select("a1", c12)
	rec.reset()

	require.NoError(t, e.Delete("a1"))

	doc := e.Document()
	assert.Nil(t, doc.Area("a1"))
	assert.Nil(t, doc.Connection(c12))
	assert.Nil(t, doc.Connection(c13))
	assert.NotNil(t, doc.Connection(c23))
	assert.Nil(t, e.Item(c12))
	assert.Nil(t, e.Item(c13))
	assert.NotNil(t, e.Item(c23))
	assert.Empty(t, doc.Dangling())
	assert.Empty(t, e.Selection())
	assert.Equal(t, []int{0, 1, 2}, zSet(e))

	var removed []string
	for _, ev := range rec.events {
		if ev.Type == EventItemRemoved {
			removed = append(removed, ev.ItemID)
		}
	}
	assert.ElementsMatch(t, []string{"a1", c12, c13}, removed)
}

func TestDeleteImageReportsPath(t *testing.T) {
	doc := projectWith()
	doc.Images = append(doc.Images, document.ImageConfig{ID: "i1", Path: "harbour.png", Scale: 1})
	e, rec := newTestEngine(t, doc)

	require.NoError(t, e.Delete("i1"))
	require.Len(t, rec.events, 1)
	assert.Equal(t, "harbour.png", rec.events[0].Path)
	assert.ErrorIs(t, e.Delete("i1"), ErrNotFound)
}

func TestConnectValidation(t *testing.T) {
	doc := projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 300, 100, 100, 50, 0, 1),
	)
	doc.Images = append(doc.Images, document.ImageConfig{ID: "i1", Scale: 1})
	e, _ := newTestEngine(t, doc)

	_, err := e.Connect("a1", "a1")
	assert.ErrorIs(t, err, ErrSelfConnection)
	_, err = e.Connect("a1", "i1")
	assert.ErrorIs(t, err, ErrNotArea)
	_, err = e.Connect("a1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Connect("a1", "a2")
	require.NoError(t, err)
	_, err = e.Connect("a2", "a1")
	assert.ErrorIs(t, err, ErrDuplicateConnection)

	require.NoError(t, e.Disconnect("a2", "a1"))
	assert.Empty(t, doc.Connections)
	assert.ErrorIs(t, e.Disconnect("a1", "a2"), ErrNotFound)
}

func TestConnectionFollowsArea(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 300, 100, 100, 50, 0, 1),
	))
	id, err := e.Connect("a1", "a2")
	require.NoError(t, err)
	conn := e.Item(id).(*ConnectionItem)

	p1, p2 := conn.Endpoints()
	assert.Equal(t, geom.Pt(100, 100), p1)
	assert.Equal(t, geom.Pt(300, 100), p2)

	e.PointerDown(PointerEvent{Pos: geom.Pt(300, 100)})
	e.PointerMove(PointerEvent{Pos: geom.Pt(300, 200)})
	_, p2 = conn.Endpoints()
	assertPointNear(t, geom.Pt(300, 200), p2, "follows during the drag")
	e.PointerUp(PointerEvent{Pos: geom.Pt(300, 200)})

	require.NoError(t, e.MoveTo("a1", geom.Pt(0, 0)))
	p1, _ = conn.Endpoints()
	assert.Equal(t, geom.Pt(0, 0), p1)

	// The line (0,0)-(300,200) leaves a1 through its bottom edge and enters
	// a2 through its top edge.
	b1, b2 := conn.BoundaryEndpoints()
	assertPointNear(t, geom.Pt(37.5, 25), b1)
	assertPointNear(t, geom.Pt(262.5, 175), b2)

	assert.Equal(t, id, e.HitTest(geom.Pt(150, 100)))
}

func TestLoadDropsDanglingConnections(t *testing.T) {
	doc := projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0))
	doc.Connections = append(doc.Connections, document.ConnectionConfig{ID: "c1", Source: "a1", Destination: "ghost"})
	e, _ := newTestEngine(t, doc)
	assert.Empty(t, doc.Connections)
	assert.Nil(t, e.Item("c1"))
}

func TestAddAndDuplicateArea(t *testing.T) {
	e, rec := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0)))

	id, err := e.AddArea(geom.Pt(400, 300))
	require.NoError(t, err)
	c := e.Document().Area(id)
	require.NotNil(t, c)
	assert.Equal(t, 100.0, c.Width)
	assert.Equal(t, 50.0, c.Height)
	assert.Equal(t, 1, c.ZIndex)
	assert.Nil(t, c.FontSize, "new areas inherit text properties from the defaults")
	assert.Equal(t, []EventType{EventItemAdded}, rec.types())

	require.NoError(t, e.SetAreaProperty(id, PropText, "# Harbour"))
	dup, err := e.DuplicateArea(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, dup)
	d := e.Document().Area(dup)
	assert.Equal(t, "# Harbour", d.Text)
	assert.Equal(t, 420.0, d.CenterX)
	assert.Equal(t, 320.0, d.CenterY)
	assert.Equal(t, 2, d.ZIndex)
}

func TestSetAreaProperty(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0)))
	c := e.Document().Area("a1")

	require.NoError(t, e.SetAreaProperty("a1", string(style.FontSize), 18.0))
	require.NotNil(t, c.FontSize)
	assert.Equal(t, 18, *c.FontSize)

	require.NoError(t, e.SetAreaProperty("a1", PropWidth, 5.0))
	assert.Equal(t, document.MinWidth, c.Width)
	w, _ := e.Item("a1").(*AreaItem).Size()
	assert.Equal(t, document.MinWidth, w)

	require.NoError(t, e.SetAreaProperty("a1", PropFillColor, "#ff0000"))
	assert.Equal(t, "#FF0000", c.FillColor)

	assert.Error(t, e.SetAreaProperty("a1", PropShape, "triangle"))
	assert.Error(t, e.SetAreaProperty("a1", string(style.HorizontalAlignment), "middle"))
	assert.Error(t, e.SetAreaProperty("a1", "bogus", 1))
}

func TestSaveStyleOverwritePropagates(t *testing.T) {
	doc := projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 300, 100, 100, 50, 0, 1),
	)
	e, rec := newTestEngine(t, doc)

	require.NoError(t, e.SetAreaProperty("a1", string(style.FontSize), 24))
	require.NoError(t, e.SaveStyle("a1", "Heading", false))
	require.NoError(t, e.ApplyStyle("a2", "Heading"))
	assert.Equal(t, 24, *doc.Area("a2").FontSize)
	assert.Equal(t, "Heading", doc.Area("a2").TextStyleRef)

	err := e.SaveStyle("a1", "Heading", false)
	assert.ErrorIs(t, err, style.ErrStyleExists)

	require.NoError(t, e.SetAreaProperty("a1", string(style.FontSize), 30))
	require.NoError(t, e.SetAreaProperty("a1", string(style.FontColor), "#112233"))
	rec.reset()
	require.NoError(t, e.SaveStyle("a1", "Heading", true))

	require.Len(t, doc.TextStyles, 1, "overwrite keeps a single style object")
	assert.Equal(t, 30, *doc.TextStyles[0].FontSize)
	assert.Equal(t, 30, *doc.Area("a2").FontSize)
	assert.Equal(t, "#112233", *doc.Area("a2").FontColor)
	assert.Contains(t, rec.types(), EventStylesChanged)

	label, err := e.StyleLabel("a2")
	require.NoError(t, err)
	assert.Equal(t, "Heading", label)

	assert.ErrorIs(t, e.SaveStyle("a1", "  ", true), style.ErrEmptyName)
}

func TestApplyThenDetachRestoresDefaults(t *testing.T) {
	doc := projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0))
	doc.TextStyles = append(doc.TextStyles, document.StyleConfig{
		Name:      "Loud",
		FontSize:  document.Ptr(28),
		FontColor: document.Ptr("#FF0000"),
		Padding:   document.Ptr(12),
	})
	e, _ := newTestEngine(t, doc)
	d := doc.Defaults
	c := doc.Area("a1")

	require.NoError(t, e.ApplyStyle("a1", "Loud"))
	assert.Equal(t, 28, *c.FontSize)
	assert.Equal(t, d.HorizontalAlignment, *c.HorizontalAlignment)

	require.NoError(t, e.SetAreaProperty("a1", string(style.Padding), 3))
	require.NoError(t, e.ApplyStyle("a1", ""))

	assert.Equal(t, d.FontSize, *c.FontSize)
	assert.Equal(t, d.FontColor, *c.FontColor)
	assert.Equal(t, 3, *c.Padding, "manual edits survive a detach")
	assert.Empty(t, c.TextStyleRef)

	label, err := e.StyleLabel("a1")
	require.NoError(t, err)
	assert.Equal(t, style.LabelCustom, label)

	require.NoError(t, e.SetAreaProperty("a1", string(style.Padding), d.Padding))
	label, _ = e.StyleLabel("a1")
	assert.Equal(t, style.LabelDefault, label)

	assert.ErrorIs(t, e.ApplyStyle("a1", "Missing"), style.ErrStyleNotFound)
}

func TestLoadRestoresStyleBinding(t *testing.T) {
	cfg := areaCfg("a1", 100, 100, 100, 50, 0, 0)
	cfg.FontSize = document.Ptr(28)
	cfg.TextStyleRef = "Loud"
	doc := projectWith(cfg)
	doc.TextStyles = append(doc.TextStyles, document.StyleConfig{Name: "Loud", FontSize: document.Ptr(28)})
	e, _ := newTestEngine(t, doc)

	require.NoError(t, e.ApplyStyle("a1", ""))
	assert.Equal(t, doc.Defaults.FontSize, *doc.Area("a1").FontSize)
}

func TestDeleteStyleUnbindsItems(t *testing.T) {
	doc := projectWith(areaCfg("a1", 100, 100, 100, 50, 0, 0))
	doc.TextStyles = append(doc.TextStyles, document.StyleConfig{Name: "Loud", FontSize: document.Ptr(28)})
	e, _ := newTestEngine(t, doc)
	require.NoError(t, e.ApplyStyle("a1", "Loud"))

	require.NoError(t, e.DeleteStyle(style.Text, "Loud"))
	assert.Empty(t, doc.TextStyles)
	assert.Empty(t, doc.Area("a1").TextStyleRef)
	assert.Equal(t, 28, *doc.Area("a1").FontSize)
	assert.ErrorIs(t, e.DeleteStyle(style.Text, "Loud"), style.ErrStyleNotFound)
}

func TestConnectionStyle(t *testing.T) {
	doc := projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 300, 100, 100, 50, 0, 1),
	)
	doc.LineStyles = append(doc.LineStyles, document.StyleConfig{Name: "Route", Thickness: document.Ptr(4.0)})
	e, _ := newTestEngine(t, doc)
	id, err := e.Connect("a1", "a2")
	require.NoError(t, err)

	require.NoError(t, e.ApplyStyle(id, "Route"))
	values, err := e.Resolved(id)
	require.NoError(t, err)
	assert.Equal(t, 4.0, values[style.Thickness])
	assert.Equal(t, doc.Defaults.LineColor, values[style.LineColor])

	require.NoError(t, e.SetConnectionProperty(id, string(style.Opacity), 3.0))
	assert.Equal(t, 1.0, *doc.Connection(id).Opacity)
	assert.Error(t, e.SetConnectionProperty(id, string(style.FontSize), 3))
}

func TestAlignUsesFirstSelectedArea(t *testing.T) {
	e, _ := newTestEngine(t, projectWith(
		areaCfg("a1", 100, 100, 100, 50, 0, 0),
		areaCfg("a2", 300, 300, 60, 40, 0, 1),
	))
	doc := e.Document()

	// Programmatic selection: lowest id is the reference.
	e.Select("a2", "a1")
	ref, ok := e.ReferenceArea()
	require.True(t, ok)
	assert.Equal(t, "a1", ref.ID())
	require.NoError(t, e.Align(AlignLeft))
	assert.InDelta(t, 80.0, doc.Area("a2").CenterX, eps)
	assert.InDelta(t, 100.0, doc.Area("a1").CenterX, eps)

	// Interactive selection keeps click order.
	e.ClearSelection()
	e.PointerDown(PointerEvent{Pos: geom.Pt(80, 300)})
	e.PointerUp(PointerEvent{Pos: geom.Pt(80, 300)})
	e.PointerDown(PointerEvent{Pos: geom.Pt(100, 100), Shift: true})
	e.PointerUp(PointerEvent{Pos: geom.Pt(100, 100), Shift: true})
	require.Equal(t, []string{"a2", "a1"}, e.Selection())

	require.NoError(t, e.Align(AlignSize))
	assert.Equal(t, 60.0, doc.Area("a1").Width)
	assert.Equal(t, 40.0, doc.Area("a1").Height)
	assert.InDelta(t, 100.0, doc.Area("a1").CenterX, eps)

	require.NoError(t, e.Align(AlignCenterY))
	assert.InDelta(t, 300.0, doc.Area("a1").CenterY, eps)

	assert.Error(t, e.Align("diagonal"))
	e.ClearSelection()
	assert.ErrorIs(t, e.Align(AlignTop), ErrNotFound)
}

func TestRenderIncludesHandlesForSelection(t *testing.T) {
	cfg := areaCfg("a1", 100, 100, 100, 50, 0, 0)
	cfg.Shape = document.ShapeEllipse
	cfg.FillColor = "#FF0000"
	cfg.FillAlpha = 0.5
	e, _ := newTestEngine(t, projectWith(cfg))

	cmds := e.Render()
	require.Len(t, cmds, 1)
	assert.Equal(t, "area", cmds[0].Op)
	assert.Equal(t, "rgba(255,0,0,0.500)", cmds[0].Fill)
	assert.Equal(t, "C", cmds[0].Path[1][0])

	e.Select("a1")
	count := map[string]int{}
	for _, c := range e.Render() {
		count[c.Op]++
	}
	assert.Equal(t, 8, count["handle"])
	assert.Equal(t, 1, count["rotateHandle"])
	assert.Equal(t, 1, count["outline"])

	b := e.SelectionBounds()
	assert.Equal(t, geom.Rect{X: 50, Y: 75, Width: 100, Height: 50}, b)
	assert.Contains(t, e.RenderJSON(), `"op":"rotateHandle"`)
}
