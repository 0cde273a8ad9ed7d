package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"

	"github.com/alvarohurtadobo/iot-backend/internal/infra/logger"
)

const (
	// RequestIDHeader carries the per-request correlation id. Distinct from
	// TraceIDHeader: the trace id follows a request across services, the
	// request id names one HTTP exchange in this service's logs.
	RequestIDHeader = "X-Request-ID"

	requestIDCtxKey = "request_id"
)

// RequestID assigns each request a correlation id consumed by the access log
// and the contextual logger. An inbound header is honored only when it is a
// well-formed UUID, so upstream proxies cannot inject arbitrary tokens into
// the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}

		c.Set(requestIDCtxKey, reqID)
		c.Writer.Header().Set(RequestIDHeader, reqID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, reqID),
		)

		c.Next()
	}
}

// GetRequestID returns the correlation id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDCtxKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
