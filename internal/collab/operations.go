package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/engine"
	"github.com/inamate/infomap/internal/project"
	"github.com/inamate/infomap/internal/style"
	"github.com/inamate/infomap/internal/typeid"
)

var ErrUnknownOperation = errors.New("unknown operation type")

// Session is the authoritative editing state of one open project. Every
// operation runs under its lock, so the engine only ever sees one caller.
type Session struct {
	mu        sync.Mutex
	name      string
	store     *project.Store
	engine    *engine.Engine
	serverSeq int64

	// events published while the current operation ran
	pending []engine.Event
	// a persistent change has not reached disk yet
	dirty bool
}

// OpenSession loads a project into a new engine.
func OpenSession(name string, store *project.Store) (*Session, error) {
	doc, err := store.Load(name)
	if err != nil {
		return nil, err
	}
	s := &Session{name: name, store: store, engine: engine.NewEngine(nil)}
	s.engine.Bus().Subscribe(func(ev engine.Event) { s.pending = append(s.pending, ev) })
	s.engine.Load(doc)
	s.pending = nil
	return s, nil
}

func (s *Session) Name() string { return s.name }

// Apply runs op and autosaves when it changed the document. It returns the
// new server sequence, the id of any item it created, and the events it
// produced. A failed save is logged and retried after the next change.
func (s *Session) Apply(op Operation) (seq int64, created string, events []engine.Event, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	created, err = s.apply(op)
	events, s.pending = s.pending, nil
	if err != nil {
		return 0, "", events, fmt.Errorf("%s: %w", op.Type, err)
	}
	s.serverSeq++

	var removed []string
	for _, ev := range events {
		if ev.Persistent() {
			s.dirty = true
		}
		if ev.Type == engine.EventItemRemoved && ev.Kind == engine.KindImage && ev.Path != "" {
			removed = append(removed, ev.Path)
		}
	}
	if s.dirty && !s.engine.Busy() {
		s.saveLocked()
	}
	s.removeImageFiles(removed)
	return s.serverSeq, created, events, nil
}

func (s *Session) apply(op Operation) (string, error) {
	e := s.engine
	switch op.Type {
	case OpPointerDown, OpPointerMove, OpPointerUp:
		if op.Pointer == nil {
			return "", errors.New("missing pointer")
		}
		switch op.Type {
		case OpPointerDown:
			e.PointerDown(*op.Pointer)
		case OpPointerMove:
			e.PointerMove(*op.Pointer)
		default:
			e.PointerUp(*op.Pointer)
		}
		return "", nil
	case OpSelect:
		e.Select(op.IDs...)
		return "", nil
	case OpSelectAll:
		e.SelectAll()
		return "", nil
	case OpSelectNone:
		e.ClearSelection()
		return "", nil
	case OpAddArea:
		if op.Point == nil {
			return "", errors.New("missing point")
		}
		return e.AddArea(*op.Point)
	case OpAddImage:
		if op.Image == nil {
			return "", errors.New("missing image")
		}
		if op.Image.ID != "" {
			if err := typeid.Validate(op.Image.ID, typeid.PrefixImage); err != nil {
				return "", err
			}
		}
		return e.AddImage(*op.Image)
	case OpDelete:
		ids := op.IDs
		if op.ItemID != "" {
			ids = append(ids, op.ItemID)
		}
		if len(ids) == 0 {
			ids = e.Selection()
		}
		return "", e.Delete(ids...)
	case OpConnect:
		return e.Connect(op.Source, op.Destination)
	case OpDisconnect:
		return "", e.Disconnect(op.Source, op.Destination)
	case OpDuplicate:
		return e.DuplicateArea(op.ItemID)
	case OpMoveTo:
		if op.Point == nil {
			return "", errors.New("missing point")
		}
		return "", e.MoveTo(op.ItemID, *op.Point)
	case OpImageScale:
		return "", e.SetImageScale(op.ItemID, op.Scale)
	case OpAreaProperty, OpConnectionProperty:
		var v any
		if err := json.Unmarshal(op.Value, &v); err != nil {
			return "", fmt.Errorf("invalid value: %w", err)
		}
		if op.Type == OpAreaProperty {
			return "", e.SetAreaProperty(op.ItemID, op.Key, v)
		}
		return "", e.SetConnectionProperty(op.ItemID, op.Key, v)
	case OpApplyStyle:
		return "", e.ApplyStyle(op.ItemID, op.Style)
	case OpSaveStyle:
		return "", e.SaveStyle(op.ItemID, op.Style, op.Overwrite)
	case OpDeleteStyle:
		k, err := style.ParseKind(op.StyleKind)
		if err != nil {
			return "", err
		}
		return "", e.DeleteStyle(k, op.Style)
	case OpRaise:
		return "", e.Raise(op.ItemID)
	case OpLower:
		return "", e.Lower(op.ItemID)
	case OpBringToFront:
		return "", e.BringToFront(op.ItemID)
	case OpSendToBack:
		return "", e.SendToBack(op.ItemID)
	case OpAlign:
		return "", e.Align(engine.AlignMode(op.Mode))
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
}

func (s *Session) saveLocked() {
	if _, err := s.store.Save(s.name, s.engine.Document()); err != nil {
		slog.Error("autosave failed", "project", s.name, "error", err)
		return
	}
	s.dirty = false
}

// removeImageFiles deletes image files no remaining image refers to.
func (s *Session) removeImageFiles(paths []string) {
	doc := s.engine.Document()
	for _, p := range paths {
		inUse := false
		for _, img := range doc.Images {
			if img.Path == p {
				inUse = true
				break
			}
		}
		if inUse {
			continue
		}
		if err := s.store.RemoveImage(s.name, p); err != nil {
			slog.Warn("remove image file", "project", s.name, "path", p, "error", err)
		}
	}
}

// Save writes pending changes.
func (s *Session) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.saveLocked()
	}
}

// Snapshot returns a deep copy of the document.
func (s *Session) Snapshot() (*document.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Document().Clone()
}

// Sync returns the payload for a doc.sync message.
func (s *Session) Sync() (DocSyncPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.engine.Document().Clone()
	if err != nil {
		return DocSyncPayload{}, err
	}
	return DocSyncPayload{ServerSeq: s.serverSeq, Document: doc, Selection: s.engine.Selection()}, nil
}

// Reload replaces the document with the copy on disk. It does nothing and
// reports false while a gesture is in progress or local changes are
// unsaved.
func (s *Session) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.Busy() || s.dirty {
		return false, nil
	}
	doc, err := s.store.Load(s.name)
	if err != nil {
		return false, err
	}
	s.engine.Load(doc)
	s.pending = nil
	s.serverSeq++
	return true, nil
}

// Close saves pending changes and detaches the engine.
func (s *Session) Close() {
	s.Save()
	s.mu.Lock()
	s.engine.Close()
	s.mu.Unlock()
}

// serverTimestamp returns the current server timestamp
func serverTimestamp() int64 {
	return time.Now().UnixMilli()
}
