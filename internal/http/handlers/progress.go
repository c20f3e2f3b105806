package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/http/response"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type ProgressHandler struct {
	tracker services.ProgressTracker
	courses services.CourseProgressService
}

func NewProgressHandler(tracker services.ProgressTracker, courses services.CourseProgressService) *ProgressHandler {
	return &ProgressHandler{tracker: tracker, courses: courses}
}

// GET /api/lessons/:id/progress
func (h *ProgressHandler) GetLessonProgress(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	row, err := h.tracker.GetLessonProgress(c.Request.Context(), ctxutil.UserID(c.Request.Context()), lessonID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": row})
}

// PATCH /api/lessons/:id/progress
func (h *ProgressHandler) PatchLessonProgress(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req LessonProgressPatchRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respond(c)(h.tracker.UpdateProgress(c.Request.Context(), ctxutil.UserID(c.Request.Context()), lessonID, learning.LessonProgressUpdate{
		ProgressPercentage: req.ProgressPercentage,
		TimeSpentMinutes:   req.TimeSpentMinutes,
		Completed:          req.Completed,
	}))
}

// POST /api/lessons/:id/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respond(c)(h.tracker.MarkAsCompleted(c.Request.Context(), ctxutil.UserID(c.Request.Context()), lessonID))
}

// POST /api/lessons/:id/time
func (h *ProgressHandler) AddLessonTime(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req LessonTimeRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respond(c)(h.tracker.UpdateTimeSpent(c.Request.Context(), ctxutil.UserID(c.Request.Context()), lessonID, *req.Minutes))
}

// PUT /api/lessons/:id/percentage
func (h *ProgressHandler) SetLessonPercentage(c *gin.Context) {
	lessonID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var req LessonPercentageRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	h.respond(c)(h.tracker.UpdateProgressPercentage(c.Request.Context(), ctxutil.UserID(c.Request.Context()), lessonID, *req.Percentage))
}

// GET /api/courses/:id/progress
func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	res, err := h.courses.Recompute(c.Request.Context(), ctxutil.UserID(c.Request.Context()), courseID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ProgressHandler) respond(c *gin.Context) func(*services.LessonUpdateResult, error) {
	return func(res *services.LessonUpdateResult, err error) {
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, res)
	}
}
