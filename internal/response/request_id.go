package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextKeyRequestID is the Gin context key for the request ID.
	ContextKeyRequestID = "request_id"

	headerRequestID    = "X-Request-ID"
	maxRequestIDLength = 64
)

// RequestIDMiddleware tags every request with an ID, reusing the caller's
// X-Request-ID when it is short and printable.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if !acceptableRequestID(id) {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequestID returns the ID assigned by RequestIDMiddleware, or "" outside it.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.' || ch == ':':
		default:
			return false
		}
	}
	return true
}
