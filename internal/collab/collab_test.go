package collab

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/engine"
	"github.com/inamate/infomap/internal/geom"
	"github.com/inamate/infomap/internal/project"
)

func newStoreWithProject(t *testing.T) *project.Store {
	t.Helper()
	store := project.NewStore(t.TempDir(), document.BuiltinDefaults())
	_, err := store.Create("map", nil)
	require.NoError(t, err)
	return store
}

func rawValue(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestSessionAutosavesCommittedChanges(t *testing.T) {
	store := newStoreWithProject(t)
	s, err := OpenSession("map", store)
	require.NoError(t, err)

	seq, id, events, err := s.Apply(Operation{ID: "1", Type: OpAddArea, Point: &geom.Point{X: 200, Y: 100}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	assert.NotEmpty(t, id)
	require.NotEmpty(t, events)
	assert.Equal(t, engine.EventItemAdded, events[0].Type)

	loaded, err := store.Load("map")
	require.NoError(t, err)
	require.NotNil(t, loaded.Area(id))
	assert.Equal(t, 200.0, loaded.Area(id).CenterX)
}

func TestSessionDragSavesOnRelease(t *testing.T) {
	store := newStoreWithProject(t)
	s, err := OpenSession("map", store)
	require.NoError(t, err)
	_, id, _, err := s.Apply(Operation{Type: OpAddArea, Point: &geom.Point{X: 100, Y: 100}})
	require.NoError(t, err)

	press := engine.PointerEvent{Pos: geom.Pt(100, 100)}
	_, _, _, err = s.Apply(Operation{Type: OpPointerDown, Pointer: &press})
	require.NoError(t, err)
	move := engine.PointerEvent{Pos: geom.Pt(150, 130)}
	_, _, _, err = s.Apply(Operation{Type: OpPointerMove, Pointer: &move})
	require.NoError(t, err)

	loaded, err := store.Load("map")
	require.NoError(t, err)
	assert.Equal(t, 100.0, loaded.Area(id).CenterX)

	_, _, _, err = s.Apply(Operation{Type: OpPointerUp, Pointer: &move})
	require.NoError(t, err)
	loaded, err = store.Load("map")
	require.NoError(t, err)
	assert.Equal(t, 150.0, loaded.Area(id).CenterX)
	assert.Equal(t, 130.0, loaded.Area(id).CenterY)
}

func TestSessionRejectsBadOperations(t *testing.T) {
	s, err := OpenSession("map", newStoreWithProject(t))
	require.NoError(t, err)

	_, _, _, err = s.Apply(Operation{Type: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, _, _, err = s.Apply(Operation{Type: OpConnect, Source: "a", Destination: "a"})
	assert.Error(t, err)

	_, _, _, err = s.Apply(Operation{Type: OpPointerDown})
	assert.Error(t, err)
}

func TestSessionPropertyAndStyleOperations(t *testing.T) {
	store := newStoreWithProject(t)
	s, err := OpenSession("map", store)
	require.NoError(t, err)
	_, a, _, err := s.Apply(Operation{Type: OpAddArea, Point: &geom.Point{X: 100, Y: 100}})
	require.NoError(t, err)
	_, b, _, err := s.Apply(Operation{Type: OpAddArea, Point: &geom.Point{X: 400, Y: 100}})
	require.NoError(t, err)

	_, _, _, err = s.Apply(Operation{Type: OpAreaProperty, ItemID: a, Key: "font_size", Value: rawValue(t, 22)})
	require.NoError(t, err)
	_, _, _, err = s.Apply(Operation{Type: OpSaveStyle, ItemID: a, Style: "Large"})
	require.NoError(t, err)
	_, _, _, err = s.Apply(Operation{Type: OpApplyStyle, ItemID: b, Style: "Large"})
	require.NoError(t, err)
	_, conn, _, err := s.Apply(Operation{Type: OpConnect, Source: a, Destination: b})
	require.NoError(t, err)

	loaded, err := store.Load("map")
	require.NoError(t, err)
	require.NotNil(t, loaded.Area(b).FontSize)
	assert.Equal(t, 22, *loaded.Area(b).FontSize)
	assert.Equal(t, "Large", loaded.Area(b).TextStyleRef)
	assert.NotNil(t, loaded.Connection(conn))

	_, _, _, err = s.Apply(Operation{Type: OpDelete, ItemID: a})
	require.NoError(t, err)
	loaded, err = store.Load("map")
	require.NoError(t, err)
	assert.Empty(t, loaded.Connections)

	_, _, _, err = s.Apply(Operation{Type: OpDeleteStyle, StyleKind: "text", Style: "Large"})
	require.NoError(t, err)
	loaded, err = store.Load("map")
	require.NoError(t, err)
	assert.Empty(t, loaded.TextStyles)
}

func TestSessionDeletesUnusedImageFiles(t *testing.T) {
	store := newStoreWithProject(t)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	img, err := store.AddImage("map", "plan.png", &buf)
	require.NoError(t, err)

	s, err := OpenSession("map", store)
	require.NoError(t, err)
	_, id, _, err := s.Apply(Operation{Type: OpAddImage, Image: &img})
	require.NoError(t, err)
	assert.FileExists(t, store.ImagePath("map", "plan.png"))

	_, _, _, err = s.Apply(Operation{Type: OpDelete, IDs: []string{id}})
	require.NoError(t, err)
	assert.NoFileExists(t, store.ImagePath("map", "plan.png"))
}

func TestSessionReloadSkipsWhileDragging(t *testing.T) {
	store := newStoreWithProject(t)
	s, err := OpenSession("map", store)
	require.NoError(t, err)
	_, _, _, err = s.Apply(Operation{Type: OpAddArea, Point: &geom.Point{X: 100, Y: 100}})
	require.NoError(t, err)

	press := engine.PointerEvent{Pos: geom.Pt(100, 100)}
	_, _, _, err = s.Apply(Operation{Type: OpPointerDown, Pointer: &press})
	require.NoError(t, err)
	reloaded, err := s.Reload()
	require.NoError(t, err)
	assert.False(t, reloaded)

	_, _, _, err = s.Apply(Operation{Type: OpPointerUp, Pointer: &press})
	require.NoError(t, err)

	doc, err := store.Load("map")
	require.NoError(t, err)
	doc.Background.Color = "#123456"
	_, err = store.Save("map", doc)
	require.NoError(t, err)

	reloaded, err = s.Reload()
	require.NoError(t, err)
	assert.True(t, reloaded)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "#123456", snap.Background.Color)
}

func TestSessionImageWithoutDimensionsKeepsCenter(t *testing.T) {
	store := newStoreWithProject(t)
	require.NoError(t, os.MkdirAll(store.ImagesDir("map"), 0o755))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 400, 200))))
	require.NoError(t, os.WriteFile(store.ImagePath("map", "plan.png"), buf.Bytes(), 0o644))

	doc, err := store.Load("map")
	require.NoError(t, err)
	doc.Images = append(doc.Images, document.ImageConfig{ID: "img_legacy", Path: "plan.png", CenterX: 500, CenterY: 500, Scale: 1})
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.ConfigPath("map"), data, 0o644))

	s, err := OpenSession("map", store)
	require.NoError(t, err)
	_, _, _, err = s.Apply(Operation{Type: OpAddArea, Point: &geom.Point{X: 100, Y: 100}})
	require.NoError(t, err)
	require.Equal(t, 400, s.engine.Document().Image("img_legacy").OriginalWidth)

	at := engine.PointerEvent{Pos: geom.Pt(500, 500)}
	for _, typ := range []string{OpPointerDown, OpPointerMove, OpPointerUp} {
		_, _, _, err = s.Apply(Operation{Type: typ, Pointer: &at})
		require.NoError(t, err)
	}

	loaded, err := store.Load("map")
	require.NoError(t, err)
	img := loaded.Image("img_legacy")
	require.NotNil(t, img)
	assert.Equal(t, 500.0, img.CenterX)
	assert.Equal(t, 500.0, img.CenterY)
	assert.Equal(t, "img_legacy", s.engine.HitTest(geom.Pt(320, 500)))
}

func newTestClient(hub *Hub, id string) *Client {
	return &Client{hub: hub, send: make(chan *Message, 64), Name: id, Project: "map", ClientID: id}
}

func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case m := <-c.send:
			out = append(out, *m)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestHubRoutesOperations(t *testing.T) {
	store := newStoreWithProject(t)
	hub := NewHub(store, nil)

	alice, bob := newTestClient(hub, "alice"), newTestClient(hub, "bob")
	hub.addClient(alice)
	hub.addClient(bob)

	welcome := drain(t, alice)
	require.NotEmpty(t, welcome)
	assert.Equal(t, TypeWelcome, welcome[0].Type)
	assert.Contains(t, types(welcome), TypePresenceJoin)
	drain(t, bob)

	payload := rawValue(t, OperationSubmitPayload{Operation: Operation{ID: "op1", Type: OpAddArea, Point: &geom.Point{X: 50, Y: 60}}})
	hub.handleMessage(alice, &Message{Type: TypeOpSubmit, Payload: payload})

	got := drain(t, alice)
	require.Len(t, got, 1)
	assert.Equal(t, TypeOpAck, got[0].Type)
	var ack OperationAckPayload
	require.NoError(t, json.Unmarshal(got[0].Payload, &ack))
	assert.Equal(t, "op1", ack.OperationID)
	assert.NotEmpty(t, ack.CreatedID)

	got = drain(t, bob)
	require.Len(t, got, 1)
	assert.Equal(t, TypeOpBroadcast, got[0].Type)

	snap, err := hub.Snapshot("map")
	require.NoError(t, err)
	assert.NotNil(t, snap.Area(ack.CreatedID))

	bad := rawValue(t, OperationSubmitPayload{Operation: Operation{ID: "op2", Type: OpRaise, ItemID: "missing"}})
	hub.handleMessage(alice, &Message{Type: TypeOpSubmit, Payload: bad})
	assert.Equal(t, []string{TypeOpNack}, types(drain(t, alice)))
	assert.Empty(t, drain(t, bob))

	hub.removeClient(bob)
	assert.Contains(t, types(drain(t, alice)), TypePresenceLeave)

	_, err = hub.Snapshot("map")
	require.NoError(t, err)
	hub.removeClient(alice)
	assert.Nil(t, hub.room("map"))
}

func TestWatcherReportsExternalEdits(t *testing.T) {
	store := newStoreWithProject(t)
	w, err := project.NewWatcher(store)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch("map"))

	changed := make(chan string, 4)
	ctx := t.Context()
	go w.Run(ctx, func(name string) {
		select {
		case changed <- name:
		default:
		}
	})

	doc, err := store.Load("map")
	require.NoError(t, err)
	doc.Background.Color = "#ABCDEF"
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.ConfigPath("map"), data, 0o644))

	select {
	case name := <-changed:
		assert.Equal(t, "map", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestPresenceForgetsDeletedItems(t *testing.T) {
	pm := NewPresenceManager()
	a := pm.Join("a", "Ann")
	b := pm.Join("b", "Ben")
	assert.NotEqual(t, a.Color, b.Color)

	_, ok := pm.Update("ghost", PresencePayload{Focus: []string{"x"}})
	assert.False(t, ok)

	got, ok := pm.Update("a", PresencePayload{Name: "Spoofed", Focus: []string{"area_1", "area_2"}})
	require.True(t, ok)
	assert.Equal(t, "Ann", got.Name)

	assert.False(t, pm.Forget([]string{"area_9"}))
	assert.True(t, pm.Forget([]string{"area_1"}))

	var state PresenceStatePayload
	require.NoError(t, json.Unmarshal(pm.StateMessage().Payload, &state))
	require.Contains(t, state.Presences, "a")
	assert.Equal(t, []string{"area_2"}, state.Presences["a"].Focus)
	assert.Equal(t, a.Color, state.Presences["a"].Color)
}

func TestHubPrunesFocusOnDelete(t *testing.T) {
	store := newStoreWithProject(t)
	hub := NewHub(store, nil)
	alice, bob := newTestClient(hub, "alice"), newTestClient(hub, "bob")
	hub.addClient(alice)
	hub.addClient(bob)

	add := rawValue(t, OperationSubmitPayload{Operation: Operation{ID: "add", Type: OpAddArea, Point: &geom.Point{X: 50, Y: 60}}})
	hub.handleMessage(alice, &Message{Type: TypeOpSubmit, Payload: add})
	var ack OperationAckPayload
	for _, m := range drain(t, alice) {
		if m.Type == TypeOpAck {
			require.NoError(t, json.Unmarshal(m.Payload, &ack))
		}
	}
	require.NotEmpty(t, ack.CreatedID)

	focus := rawValue(t, PresencePayload{Focus: []string{ack.CreatedID}})
	hub.handleMessage(bob, &Message{Type: TypePresenceUpdate, Payload: focus})
	assert.Contains(t, types(drain(t, alice)), TypePresenceUpdate)
	drain(t, bob)

	del := rawValue(t, OperationSubmitPayload{Operation: Operation{ID: "del", Type: OpDelete, ItemID: ack.CreatedID}})
	hub.handleMessage(alice, &Message{Type: TypeOpSubmit, Payload: del})
	assert.Equal(t, []string{TypeOpBroadcast, TypePresenceState}, types(drain(t, bob)))
}
