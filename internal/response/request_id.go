package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// ContextKeyRequestID is the gin context key the request id is stored under.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware assigns every request an id, honoring one supplied
// by the client so proxies can thread their own correlation ids through.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestIDFrom reads the id set by RequestIDMiddleware, or "".
func requestIDFrom(c *gin.Context) string {
	v, _ := c.Get(ContextKeyRequestID)
	id, _ := v.(string)
	return id
}
