package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDHeader, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}

// RequestIDFrom returns the id attached by RequestID, empty when the
// middleware did not run.
func RequestIDFrom(c *gin.Context) string {
	if id, ok := c.Get(requestIDHeader); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return c.Writer.Header().Get(requestIDHeader)
}
