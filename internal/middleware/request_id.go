package middleware

import (
	"github.com/genrelay/api/internal/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the gin context key holding the request ID
const ContextKeyRequestID = "request_id"

// RequestID honours an incoming X-Request-ID or generates one,
// echoes it on the response and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestid.Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(requestid.WithID(c.Request.Context(), id))
		c.Header(requestid.Header, id)

		c.Next()
	}
}
