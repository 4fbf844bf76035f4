package collab

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 256 * 1024
	sendBuffer = 256
)

// Client is one editor connection to a project room. Outgoing messages are
// queued on send and written by WritePump; the queue is never closed.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan *Message
	Name     string
	Project  string
	ClientID string
}

func NewClient(hub *Hub, conn *websocket.Conn, name, projectName, clientID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan *Message, sendBuffer),
		Name:     name,
		Project:  projectName,
		ClientID: clientID,
	}
}

// ReadPump decodes messages until the connection drops. A frame that is
// not valid JSON closes the connection.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		var msg Message
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}

		msg.ClientID = c.ClientID
		msg.Project = c.Project
		c.hub.handleMessage(c, &msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case msg := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := wsjson.Write(writeCtx, c.conn, msg)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "client", c.ClientID, "type", msg.Type)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg without blocking. Messages to a client whose queue is
// full are dropped; the client recovers with a doc.sync request.
func (c *Client) Send(msg *Message) {
	if msg == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}
