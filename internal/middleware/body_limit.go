package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit is 50 MiB
const DefaultBodyLimit int64 = 50 << 20

// BodyLimit caps the request body at n bytes. Reads past the cap fail
// with *http.MaxBytesError; handlers map that to 413.
func BodyLimit(n int64) gin.HandlerFunc {
	if n <= 0 {
		n = DefaultBodyLimit
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			PayloadTooLarge(c)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
