package collab

import (
	"encoding/json"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/engine"
	"github.com/inamate/infomap/internal/geom"
)

type Message struct {
	Type     string          `json:"type"`
	Project  string          `json:"project,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor *geom.Point `json:"cursor,omitempty"`
	// Focus lists the items the client has selected locally.
	Focus []string `json:"focus,omitempty"`
	Name  string   `json:"name,omitempty"`
	Color string   `json:"color,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Color    string `json:"color"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

// WelcomePayload is sent once to a client after it joins a room.
type WelcomePayload struct {
	ClientID  string            `json:"clientId"`
	ServerSeq int64             `json:"serverSeq"`
	Document  *document.Project `json:"document"`
}

// DocSyncPayload carries the whole document, sent on request and after
// the project changed on disk.
type DocSyncPayload struct {
	ServerSeq int64             `json:"serverSeq"`
	Document  *document.Project `json:"document"`
	Selection []string          `json:"selection"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types.
const (
	OpPointerDown        = "pointer.down"
	OpPointerMove        = "pointer.move"
	OpPointerUp          = "pointer.up"
	OpSelect             = "selection.set"
	OpSelectAll          = "selection.all"
	OpSelectNone         = "selection.clear"
	OpAddArea            = "area.add"
	OpAddImage           = "image.add"
	OpDelete             = "item.delete"
	OpConnect            = "area.connect"
	OpDisconnect         = "area.disconnect"
	OpDuplicate          = "area.duplicate"
	OpMoveTo             = "item.move"
	OpImageScale         = "image.scale"
	OpAreaProperty       = "area.property"
	OpConnectionProperty = "connection.property"
	OpApplyStyle         = "style.apply"
	OpSaveStyle          = "style.save"
	OpDeleteStyle        = "style.delete"
	OpRaise              = "zorder.raise"
	OpLower              = "zorder.lower"
	OpBringToFront       = "zorder.front"
	OpSendToBack         = "zorder.back"
	OpAlign              = "align"
)

// Operation is one editor command. Which fields are read depends on Type.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	ClientSeq int64  `json:"clientSeq"`

	// For pointer.*
	Pointer *engine.PointerEvent `json:"pointer,omitempty"`

	// Target item for single-item operations; IDs for selection.set and
	// item.delete.
	ItemID string   `json:"itemId,omitempty"`
	IDs    []string `json:"ids,omitempty"`

	// For area.add and item.move
	Point *geom.Point `json:"point,omitempty"`

	// For area.connect / area.disconnect
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`

	// For image.add
	Image *document.ImageConfig `json:"image,omitempty"`

	// For image.scale
	Scale float64 `json:"scale,omitempty"`

	// For area.property / connection.property
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`

	// For style.*; an empty Style on style.apply detaches.
	Style     string `json:"style,omitempty"`
	StyleKind string `json:"styleKind,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`

	// For align
	Mode string `json:"mode,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string         `json:"operationId"`
	ServerSeq       int64          `json:"serverSeq"`
	ServerTimestamp int64          `json:"serverTimestamp"`
	CreatedID       string         `json:"createdId,omitempty"`
	Events          []engine.Event `json:"events"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation      `json:"operation"`
	ClientID  string         `json:"clientId"`
	ServerSeq int64          `json:"serverSeq"`
	Events    []engine.Event `json:"events"`
}
