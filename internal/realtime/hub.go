// Package realtime fans board events out to connected clients. Each board
// is a room; an event published to a room reaches every connection in it
// except the sender. Delivery is at most once with no replay.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
)

var ErrUnknownConnection = errors.New("realtime connection not found")

// Event is one message relayed to a board room.
type Event struct {
	Name     string          `json:"event"`
	BoardID  uint64          `json:"boardId"`
	Data     json.RawMessage `json:"data,omitempty"`
	SenderID string          `json:"senderId,omitempty"`
}

// NewEvent marshals data into an Event.
func NewEvent(name string, boardID uint64, data interface{}, senderID string) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, BoardID: boardID, Data: raw, SenderID: senderID}, nil
}

// MemberRemovedPayload is the data of a member-removed event.
type MemberRemovedPayload struct {
	UserID uint64 `json:"userId"`
}

// Bridge carries events between server instances.
type Bridge interface {
	Publish(ctx context.Context, ev Event) error
}

// Conn is one client stream registered with the hub.
type Conn struct {
	ID     string
	UserID uint64

	send  chan Event
	rooms map[uint64]struct{}
}

// Events is closed when the connection is unregistered.
func (c *Conn) Events() <-chan Event {
	return c.send
}

// Hub is the registry of connections and rooms.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	rooms map[uint64]map[string]*Conn

	bridge     Bridge
	bufferSize int
	closed     bool
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger, bufferSize int) *Hub {
	return &Hub{
		conns:      make(map[string]*Conn),
		rooms:      make(map[uint64]map[string]*Conn),
		bufferSize: bufferSize,
		log:        log,
	}
}

// UseBridge routes Publish through b. The caller must feed events received
// from b back into Deliver.
func (h *Hub) UseBridge(b Bridge) {
	h.mu.Lock()
	h.bridge = b
	h.mu.Unlock()
}

// Register adds a connection for userID. After Close the connection comes
// back with its channel already closed.
func (h *Hub) Register(userID uint64) *Conn {
	c := &Conn{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan Event, h.bufferSize),
		rooms:  make(map[uint64]struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(c.send)
		return c
	}
	h.conns[c.ID] = c
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{"conn": c.ID, "user": userID}).Debug("realtime connection registered")
	return c
}

// Unregister removes the connection from every room and closes its channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	for boardID := range c.rooms {
		h.removeFromRoom(c, boardID)
	}
	delete(h.conns, connID)
	close(c.send)

	h.log.WithField("conn", connID).Debug("realtime connection unregistered")
}

// Close unregisters every connection, which ends their streams. It is meant
// for server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, c := range h.conns {
		close(c.send)
		delete(h.conns, id)
	}
	h.rooms = make(map[uint64]map[string]*Conn)
	h.log.Debug("realtime hub closed")
}

// Conn looks up a registered connection.
func (h *Hub) Conn(connID string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	return c, ok
}

func (h *Hub) Join(connID string, boardID uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	room, ok := h.rooms[boardID]
	if !ok {
		room = make(map[string]*Conn)
		h.rooms[boardID] = room
	}
	room[connID] = c
	c.rooms[boardID] = struct{}{}
	return nil
}

// Leave removes the connection from a room. Leaving a room it never joined
// is not an error.
func (h *Hub) Leave(connID string, boardID uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	h.removeFromRoom(c, boardID)
	return nil
}

func (h *Hub) removeFromRoom(c *Conn, boardID uint64) {
	delete(c.rooms, boardID)
	room, ok := h.rooms[boardID]
	if !ok {
		return
	}
	delete(room, c.ID)
	if len(room) == 0 {
		delete(h.rooms, boardID)
	}
}

// EvictUser takes every connection of userID out of the room.
func (h *Hub) EvictUser(userID, boardID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.rooms[boardID] {
		if c.UserID == userID {
			h.removeFromRoom(c, boardID)
		}
	}
}

// CloseRoom empties the room. The connections stay registered.
func (h *Hub) CloseRoom(boardID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.rooms[boardID] {
		delete(c.rooms, boardID)
	}
	delete(h.rooms, boardID)
}

// InRoom reports whether the connection has joined boardID.
func (h *Hub) InRoom(connID string, boardID uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return false
	}
	_, joined := c.rooms[boardID]
	return joined
}

func (h *Hub) RoomSize(boardID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[boardID])
}

// Publish sends ev to its room on every instance. Without a bridge it is
// delivered locally. When the bridge fails the event still reaches local
// connections and the error is returned.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()

	if bridge == nil {
		h.Deliver(ev)
		return nil
	}
	if err := bridge.Publish(ctx, ev); err != nil {
		h.Deliver(ev)
		return err
	}
	return nil
}

// Deliver hands ev to every local connection in the room except the sender
// and returns how many received it. A connection whose buffer is full misses
// the event. member-removed and board-deleted are delivered first and then
// applied to the room.
func (h *Hub) Deliver(ev Event) int {
	delivered := h.fanOut(ev)

	switch ev.Name {
	case constants.EventMemberRemoved:
		var payload MemberRemovedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			h.log.WithError(err).WithField("board", ev.BoardID).Warn("malformed member-removed event")
			break
		}
		h.EvictUser(payload.UserID, ev.BoardID)
	case constants.EventBoardDeleted:
		h.CloseRoom(ev.BoardID)
	}
	return delivered
}

func (h *Hub) fanOut(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, c := range h.rooms[ev.BoardID] {
		if id == ev.SenderID {
			continue
		}
		select {
		case c.send <- ev:
			delivered++
		default:
			h.log.WithFields(logrus.Fields{
				"conn":  id,
				"event": ev.Name,
				"board": ev.BoardID,
			}).Warn("realtime buffer full, dropping event")
		}
	}
	return delivered
}
