package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbharat-backend/internal/http/response"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type CertificateHandler struct {
	svc services.CertificateService
}

func NewCertificateHandler(svc services.CertificateService) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

// GET /api/courses/:id/certificate?template=name
func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	data, err := h.svc.Assemble(c.Request.Context(), ctxutil.UserID(c.Request.Context()), courseID, c.Query("template"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificate": data})
}
