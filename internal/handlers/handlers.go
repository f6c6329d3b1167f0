package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
	"github.com/yukikurage/mini-trello-api/internal/middleware"
)

// requireUserID returns the authenticated user id or writes a 401.
func requireUserID(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// uintParam parses a path parameter or writes a 400 naming it.
func uintParam(c *gin.Context, name, label string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return id, true
}

// senderID is the caller's realtime connection to leave out of the events
// its request triggers. Empty unless the connection is the caller's own.
func senderID(c *gin.Context) string {
	return middleware.RealtimeSenderID(c)
}
