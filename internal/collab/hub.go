package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/engine"
	"github.com/inamate/infomap/internal/project"
	"github.com/inamate/infomap/internal/typeid"
)

// Room is one open project and the clients editing it.
type Room struct {
	name     string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	session  *Session
}

func newRoom(name string, session *Session) *Room {
	return &Room{
		name:     name,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		session:  session,
	}
}

// Hub routes clients to rooms and owns the sessions behind them. A room is
// one user's open project; extra connections are further windows of the
// same editor, all driving the single Session.
type Hub struct {
	store   *project.Store
	watcher *project.Watcher

	mu         sync.RWMutex
	rooms      map[string]*Room // project name -> room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub. watcher may be nil to ignore edits made on disk.
func NewHub(store *project.Store, watcher *project.Watcher) *Hub {
	return &Hub{
		store:      store,
		watcher:    watcher,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until Stop is called or ctx ends. Every
// open session is saved before Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.watcher != nil {
		go h.watcher.Run(ctx, h.reload)
	}
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.closeAll()
			return
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Stop saves every open project and waits for Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Snapshot returns a copy of the project, taken from its live session when
// one is open.
func (h *Hub) Snapshot(name string) (*document.Project, error) {
	h.mu.RLock()
	room, ok := h.rooms[name]
	h.mu.RUnlock()
	if ok {
		return room.session.Snapshot()
	}
	return h.store.Load(name)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.Project]
	if !ok {
		session, err := OpenSession(client.Project, h.store)
		if err != nil {
			h.mu.Unlock()
			slog.Warn("open project failed", "project", client.Project, "error", err)
			client.Send(errorMessage(err.Error()))
			client.conn.Close(websocket.StatusPolicyViolation, "cannot open project")
			return
		}
		room = newRoom(client.Project, session)
		h.rooms[client.Project] = room
		if h.watcher != nil {
			if err := h.watcher.Watch(client.Project); err != nil {
				slog.Warn("watch project", "project", client.Project, "error", err)
			}
		}
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()
	joined := room.presence.Join(client.ClientID, client.Name)

	if snap, err := room.session.Sync(); err == nil {
		client.Send(newMessage(TypeWelcome, WelcomePayload{
			ClientID:  client.ClientID,
			ServerSeq: snap.ServerSeq,
			Document:  snap.Document,
		}))
	}
	client.Send(room.presence.StateMessage())

	h.broadcastToRoom(client.Project, newMessage(TypePresenceJoin, PresenceJoinPayload{
		ClientID: client.ClientID,
		Name:     client.Name,
		Color:    joined.Color,
	}), client.ClientID)

	slog.Info("client joined", "client", client.ClientID, "project", client.Project)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.Project]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	room.presence.Remove(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.Project)
	}
	h.mu.Unlock()

	if empty {
		room.session.Close()
		if h.watcher != nil {
			h.watcher.Unwatch(room.name)
		}
		slog.Info("project closed", "project", room.name)
	} else {
		h.broadcastToRoom(client.Project, newMessage(TypePresenceLeave, PresenceLeavePayload{
			ClientID: client.ClientID,
		}), "")
	}

	slog.Info("client left", "client", client.ClientID, "project", client.Project)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, room := range rooms {
		room.session.Close()
		for _, c := range room.clients {
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
	if h.watcher != nil {
		h.watcher.Close()
	}
	slog.Info("all projects saved", "count", len(rooms))
}

// reload picks up a config edited outside the editor.
func (h *Hub) reload(name string) {
	h.mu.RLock()
	room, ok := h.rooms[name]
	h.mu.RUnlock()
	if !ok {
		return
	}

	reloaded, err := room.session.Reload()
	if err != nil {
		slog.Warn("reload project", "project", name, "error", err)
		return
	}
	if !reloaded {
		slog.Info("external change ignored, session has unsaved edits", "project", name)
		return
	}
	if snap, err := room.session.Sync(); err == nil {
		h.broadcastToRoom(name, newMessage(TypeDocSync, snap), "")
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOperation(sender, msg)
	case TypeDocSync:
		if room := h.room(sender.Project); room != nil {
			if snap, err := room.session.Sync(); err == nil {
				sender.Send(newMessage(TypeDocSync, snap))
			}
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
	}
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sender.Send(errorMessage("invalid operation payload"))
		return
	}
	room := h.room(sender.Project)
	if room == nil {
		return
	}
	op := submit.Operation
	if op.ID == "" {
		op.ID = typeid.NewOpID()
	}

	seq, created, events, err := room.session.Apply(op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.Type, "client", sender.ClientID, "error", err)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()}))
		return
	}

	sender.Send(newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: serverTimestamp(),
		CreatedID:       created,
		Events:          events,
	}))
	h.broadcastToRoom(sender.Project, newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: op,
		ClientID:  sender.ClientID,
		ServerSeq: seq,
		Events:    events,
	}), sender.ClientID)

	var removed []string
	for _, ev := range events {
		if ev.Type == engine.EventItemRemoved {
			removed = append(removed, ev.ItemID)
		}
	}
	if room.presence.Forget(removed) {
		h.broadcastToRoom(sender.Project, room.presence.StateMessage(), "")
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var report PresencePayload
	if err := json.Unmarshal(msg.Payload, &report); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	room := h.room(sender.Project)
	if room == nil {
		return
	}
	presence, ok := room.presence.Update(sender.ClientID, report)
	if !ok {
		return
	}

	out := newMessage(TypePresenceUpdate, presence)
	out.ClientID = sender.ClientID
	h.broadcastToRoom(sender.Project, out, sender.ClientID)
}

func (h *Hub) room(name string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[name]
}

func (h *Hub) broadcastToRoom(name string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[name]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}

func errorMessage(text string) *Message {
	return newMessage(TypeError, ErrorPayload{Message: text})
}
