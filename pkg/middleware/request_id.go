package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/paperqa/pkg/utils/id"
)

// HeaderXRequestID is the request id header.
const HeaderXRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID reuses the incoming X-Request-ID or generates a ULID, and sets it
// on the response header and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = id.NewULID()
		}
		c.Header(HeaderXRequestID, rid)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, rid))
		c.Next()
	}
}

// GetRequestID returns the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}
