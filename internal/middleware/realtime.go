package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/mini-trello-api/internal/constants"
	"github.com/yukikurage/mini-trello-api/internal/realtime"
)

// ConnRegistry looks up realtime connections.
type ConnRegistry interface {
	Conn(connID string) (*realtime.Conn, bool)
}

// RealtimeSender accepts the X-Realtime-Connection header only when it names
// one of the caller's own connections. Anything else is ignored.
// Must run after RequireAuth.
func RealtimeSender(conns ConnRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		connID := c.GetHeader(constants.HeaderRealtimeConnection)
		if connID == "" {
			c.Next()
			return
		}

		userID, ok := GetUserID(c)
		if conn, found := conns.Conn(connID); ok && found && conn.UserID == userID {
			c.Set(constants.ContextKeyRealtimeSender, connID)
		}
		c.Next()
	}
}

// RealtimeSenderID returns the connection accepted by RealtimeSender, or "".
func RealtimeSenderID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyRealtimeSender)
}
