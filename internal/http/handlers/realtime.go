package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/http/response"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/sse/stream
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errNotAuthenticated)
		return
	}
	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, realtime.UserChannel(userID))
	h.log.Debug("SSE stream open", "user_id", userID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("SSE stream closed", "user_id", userID, "client_id", client.ID)
}

type handlerError string

func (e handlerError) Error() string { return string(e) }

const errNotAuthenticated handlerError = "not authenticated"
