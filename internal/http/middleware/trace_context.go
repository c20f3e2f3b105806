package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientIDLen = 128
)

// AttachTraceContext stores trace and request ids on the request context and echoes them back.
// An active otel span wins over a client supplied trace id.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := clientID(c.GetHeader(headerRequestID))
		traceID := ""
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else {
			traceID = clientID(c.GetHeader(headerTraceID))
		}

		td := &ctxutil.TraceData{TraceID: traceID, RequestID: reqID}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		h := c.Writer.Header()
		h.Set(headerTraceID, traceID)
		h.Set(headerRequestID, reqID)
		c.Next()
	}
}

// clientID keeps a caller supplied id when it is short and printable, else mints one.
func clientID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxClientIDLen {
		return uuid.NewString()
	}
	for _, r := range raw {
		if r < 0x21 || r > 0x7e {
			return uuid.NewString()
		}
	}
	return raw
}
