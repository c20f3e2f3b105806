package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler reports 503 when ping fails; a nil ping always reports ok.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}
