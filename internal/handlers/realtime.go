package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/permission"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
	"github.com/yukikurage/mini-trello-api/internal/services"
)

// RealtimeHandler serves board rooms over Server-Sent Events. A client
// opens a stream, then joins rooms and emits events by connection id.
type RealtimeHandler struct {
	hub               *realtime.Hub
	boardService      *services.BoardService
	requireMembership bool
	heartbeat         time.Duration
	log               logrus.FieldLogger
}

func NewRealtimeHandler(hub *realtime.Hub, boardService *services.BoardService, requireMembership bool, log logrus.FieldLogger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:               hub,
		boardService:      boardService,
		requireMembership: requireMembership,
		heartbeat:         25 * time.Second,
		log:               log,
	}
}

type roomRequest struct {
	BoardID uint64 `json:"boardId" binding:"required"`
}

type emitRequest struct {
	Event   string          `json:"event" binding:"required"`
	BoardID uint64          `json:"boardId" binding:"required"`
	Data    json.RawMessage `json:"data"`
}

// Stream registers a connection and relays its room events until the
// client goes away. The first event names the connection.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conn := h.hub.Register(userID)
	defer h.hub.Unregister(conn.ID)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(constants.EventConnected, gin.H{"connectionId": conn.ID})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-conn.Events():
			if !open {
				return false
			}
			c.SSEvent(ev.Name, ev)
			return true
		case <-ticker.C:
			// comment line, ignored by EventSource
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
}

// ownConn resolves :connId to a connection of the caller. Someone else's
// connection is reported as missing.
func (h *RealtimeHandler) ownConn(c *gin.Context) (*realtime.Conn, bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, false
	}
	conn, exists := h.hub.Conn(c.Param("connId"))
	if !exists || conn.UserID != userID {
		apierrors.NotFound(c, "Connection not found")
		return nil, false
	}
	return conn, true
}

// canJoin checks board access when membership is required.
func (h *RealtimeHandler) canJoin(c *gin.Context, userID, boardID uint64) bool {
	if !h.requireMembership {
		return true
	}
	board, err := h.boardService.GetBoard(boardID)
	if err != nil {
		respondBoardError(c, err)
		return false
	}
	if !permission.IsBoardMemberOrOwner(userID, board) {
		apierrors.Forbidden(c, "You do not have access to this board")
		return false
	}
	return true
}

func (h *RealtimeHandler) Join(c *gin.Context) {
	conn, ok := h.ownConn(c)
	if !ok {
		return
	}

	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "boardId is required")
		return
	}
	if !h.canJoin(c, conn.UserID, req.BoardID) {
		return
	}

	if err := h.hub.Join(conn.ID, req.BoardID); err != nil {
		apierrors.NotFound(c, "Connection not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"boardId": req.BoardID,
		"members": h.hub.RoomSize(req.BoardID),
	})
}

func (h *RealtimeHandler) Leave(c *gin.Context) {
	conn, ok := h.ownConn(c)
	if !ok {
		return
	}

	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "boardId is required")
		return
	}

	if err := h.hub.Leave(conn.ID, req.BoardID); err != nil {
		apierrors.NotFound(c, "Connection not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// Emit relays a client event to the rest of the room. Only card-updated and
// task-moved are accepted and the sender must have joined the room.
func (h *RealtimeHandler) Emit(c *gin.Context) {
	conn, ok := h.ownConn(c)
	if !ok {
		return
	}

	var req emitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "event and boardId are required")
		return
	}
	switch req.Event {
	case constants.EventCardUpdated, constants.EventTaskMoved:
	default:
		apierrors.BadRequest(c, "Unsupported event")
		return
	}
	if !h.hub.InRoom(conn.ID, req.BoardID) {
		apierrors.Forbidden(c, "Join the board before emitting")
		return
	}

	ev := realtime.Event{
		Name:     req.Event,
		BoardID:  req.BoardID,
		Data:     req.Data,
		SenderID: conn.ID,
	}
	if err := h.hub.Publish(c.Request.Context(), ev); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"event": req.Event,
			"board": req.BoardID,
		}).Warn("realtime bridge publish failed")
	}
	c.Status(http.StatusAccepted)
}
