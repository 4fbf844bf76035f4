package engine

// EventType names a change notification.
type EventType string

const (
	EventItemAdded         EventType = "item.added"
	EventItemRemoved       EventType = "item.removed"
	EventItemMoved         EventType = "item.moved"
	EventPositionChanged   EventType = "item.position"
	EventPropertiesChanged EventType = "item.properties"
	EventSelectionChanged  EventType = "selection.changed"
	EventZOrderChanged     EventType = "zorder.changed"
	EventStylesChanged     EventType = "styles.changed"
	EventDocumentLoaded    EventType = "document.loaded"
)

// Event is delivered after the mutation it describes has completed.
type Event struct {
	Type   EventType `json:"type"`
	ItemID string    `json:"itemId,omitempty"`
	Kind   Kind      `json:"kind,omitempty"`
	// Path is set on image removal so the owner can delete the file.
	Path string `json:"path,omitempty"`
}

// Persistent reports whether the event reflects a committed document change
// that should be saved. Position updates in the middle of a gesture are not.
func (e Event) Persistent() bool {
	switch e.Type {
	case EventPositionChanged, EventSelectionChanged, EventDocumentLoaded:
		return false
	}
	return true
}

// Bus delivers events synchronously, in subscription order, on the caller's
// goroutine.
type Bus struct {
	nextID   int
	handlers []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})
	return func() {
		for i, s := range b.handlers {
			if s.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every handler before returning.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	for _, s := range b.handlers {
		s.fn(ev)
	}
}
