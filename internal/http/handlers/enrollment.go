package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbharat-backend/internal/http/response"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type EnrollmentHandler struct {
	svc services.EnrollmentService
}

func NewEnrollmentHandler(svc services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{svc: svc}
}

// POST /api/courses/:id/enroll
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	row, created, err := h.svc.Enroll(c.Request.Context(), ctxutil.UserID(c.Request.Context()), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	payload := gin.H{"enrollment": row, "status": row.Status()}
	if created {
		response.RespondCreated(c, payload)
		return
	}
	response.RespondOK(c, payload)
}

// GET /api/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	rows, err := h.svc.ListEnrollments(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": rows})
}
