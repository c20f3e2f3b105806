package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

// RequestLogger writes one line per request after it completes. Progress routes carry
// the lesson or course id so a user's progress trail can be followed in the logs.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		path := route
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, resourceKey(route), id)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case route == "/healthcheck":
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func resourceKey(route string) string {
	switch {
	case strings.Contains(route, "/lessons/"):
		return "lesson_id"
	case strings.Contains(route, "/courses/"):
		return "course_id"
	default:
		return "resource_id"
	}
}
