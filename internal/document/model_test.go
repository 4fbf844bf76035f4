package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalBackfillsMissingKeys(t *testing.T) {
	raw := `{
		"background": {"width": 800, "height": 600, "color": "#000000"},
		"info_areas": [{"id": "a1", "center_x": 10, "center_y": 20, "width": 5, "height": 60}],
		"images": [{"id": "i1", "path": "x.png", "center_x": 1, "center_y": 2}],
		"defaults": {"font_size": 20}
	}`

	var p Project
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	require.Len(t, p.InfoAreas, 1)
	a := p.InfoAreas[0]
	assert.Equal(t, ShapeRectangle, a.Shape)
	assert.True(t, a.ShowOnHover)
	assert.False(t, a.ShowOnHoverConnected)
	assert.Equal(t, MinWidth, a.Width)
	assert.Equal(t, 60.0, a.Height)
	assert.Nil(t, a.FontColor)

	assert.Equal(t, 1.0, p.Images[0].Scale)
	assert.NotNil(t, p.Connections)
	assert.NotNil(t, p.TextStyles)
	assert.Equal(t, 20, p.Defaults.FontSize)
	assert.Equal(t, BuiltinDefaults().LineColor, p.Defaults.LineColor)
}

func TestExplicitFalseShowOnHoverSurvives(t *testing.T) {
	var a AreaConfig
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","show_on_hover":false,"shape":"ellipse"}`), &a))
	assert.False(t, a.ShowOnHover)
	assert.Equal(t, ShapeEllipse, a.Shape)
	assert.False(t, a.HiddenAtLoad())
}

func TestRemoveAreaCascades(t *testing.T) {
	p := NewEmptyProject("p", BuiltinDefaults())
	p.InfoAreas = []AreaConfig{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	p.Connections = []ConnectionConfig{
		{ID: "ab", Source: "a", Destination: "b"},
		{ID: "bc", Source: "b", Destination: "c"},
		{ID: "ca", Source: "c", Destination: "a"},
	}

	removed, ok := p.RemoveArea("a")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"ab", "ca"}, removed)
	require.Len(t, p.Connections, 1)
	assert.Equal(t, "bc", p.Connections[0].ID)
	assert.Empty(t, p.Dangling())

	_, ok = p.RemoveArea("a")
	assert.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	p := NewSampleProject("sample")
	c, err := p.Clone()
	require.NoError(t, err)

	*c.InfoAreas[2].FontColor = "#FF0000"
	c.InfoAreas[0].Text = "changed"
	assert.Equal(t, "#1A1A2E", *p.InfoAreas[2].FontColor)
	assert.NotEqual(t, "changed", p.InfoAreas[0].Text)
}

func TestFindConnectionEitherDirection(t *testing.T) {
	p := NewSampleProject("sample")
	src, dst := p.Connections[0].Source, p.Connections[0].Destination
	assert.NotNil(t, p.FindConnection(dst, src))
	assert.Equal(t, dst, p.Connections[0].Other(src))
}

func TestImageDisplaySize(t *testing.T) {
	c := ImageConfig{OriginalWidth: 200, OriginalHeight: 100, Scale: 0.5}
	w, h := c.DisplaySize()
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	missing := ImageConfig{Scale: 2}
	w, h = missing.DisplaySize()
	assert.Equal(t, float64(2*PlaceholderSize), w)
	assert.Equal(t, float64(2*PlaceholderSize), h)
}
