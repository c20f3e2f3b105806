package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbharat-backend/internal/http/response"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type CourseHandler struct {
	svc services.CourseProgressService
}

func NewCourseHandler(svc services.CourseProgressService) *CourseHandler {
	return &CourseHandler{svc: svc}
}

// GET /api/courses/:id/tree
func (h *CourseHandler) GetCourseTree(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	tree, err := h.svc.GetCourseTree(c.Request.Context(), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	durations := make([]int, len(tree.Modules))
	for i, m := range tree.Modules {
		durations[i] = m.DurationMinutes()
	}
	response.RespondOK(c, gin.H{"tree": tree, "module_duration_minutes": durations})
}
