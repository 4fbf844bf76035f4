package collab

import (
	"slices"
	"sync"
)

// cursorColors are handed out to clients in join order.
var cursorColors = []string{
	"#E6194B", "#3CB44B", "#4363D8", "#F58231",
	"#911EB4", "#42D4F4", "#F032E6", "#9A6324",
}

// PresenceManager tracks each client's cursor and the items it has focused.
// Names and colors are assigned by the server; clients only report cursor
// and focus.
type PresenceManager struct {
	mu     sync.RWMutex
	byID   map[string]*PresencePayload // clientID -> presence
	joined int
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{byID: make(map[string]*PresencePayload)}
}

// Join registers a client and returns its presence with the assigned color.
func (pm *PresenceManager) Join(clientID, name string) PresencePayload {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	p := &PresencePayload{Name: name, Color: cursorColors[pm.joined%len(cursorColors)]}
	pm.joined++
	pm.byID[clientID] = p
	return p.clone()
}

// Update stores a client report. Reports from clients that never joined
// are dropped.
func (pm *PresenceManager) Update(clientID string, report PresencePayload) (PresencePayload, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	cur, ok := pm.byID[clientID]
	if !ok {
		return PresencePayload{}, false
	}
	cur.Cursor = report.Cursor
	cur.Focus = slices.Clone(report.Focus)
	return cur.clone(), true
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.byID, clientID)
}

// Forget removes deleted item ids from every focus list and reports
// whether any client was affected.
func (pm *PresenceManager) Forget(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	changed := false
	for _, p := range pm.byID {
		n := len(p.Focus)
		p.Focus = slices.DeleteFunc(p.Focus, func(id string) bool { return slices.Contains(ids, id) })
		changed = changed || len(p.Focus) != n
	}
	return changed
}

func (pm *PresenceManager) StateMessage() *Message {
	pm.mu.RLock()
	all := make(map[string]*PresencePayload, len(pm.byID))
	for id, p := range pm.byID {
		c := p.clone()
		all[id] = &c
	}
	pm.mu.RUnlock()
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: all})
}

func (p *PresencePayload) clone() PresencePayload {
	c := *p
	if p.Cursor != nil {
		cursor := *p.Cursor
		c.Cursor = &cursor
	}
	c.Focus = slices.Clone(p.Focus)
	return c
}
