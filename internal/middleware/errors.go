package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Client-facing error messages
const (
	MsgInternalError  = "Internal Server Error"
	MsgBodyTooLarge   = "Request body too large."
	MsgCORSNotAllowed = "The CORS policy for this site does not allow access from the specified Origin."
)

// RespondError sends {"error": message} with the given status
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, message)
}

// PayloadTooLarge sends a 413 error
func PayloadTooLarge(c *gin.Context) {
	RespondError(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
}

// InternalError sends the fixed 500 body. Details never reach the client.
func InternalError(c *gin.Context) {
	RespondError(c, http.StatusInternalServerError, MsgInternalError)
}
