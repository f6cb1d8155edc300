package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id, honoring one supplied by the
// kiosk UI so a tap on the screen can be traced through the agent log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDHeader, id)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()
	}
}
