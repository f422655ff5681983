package middleware

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/core/trace"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

// Trace middleware assigns every request an id, honoring one supplied by
// the caller, and reflects it in the response headers.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = trace.NewRequestID()
		}

		ctx := trace.With(c.Request.Context(), &trace.Info{RequestID: requestID})
		c.Request = c.Request.WithContext(ctx)

		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)

		c.Next()
	}
}
