package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbharat-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service error onto its HTTP status. Internal errors do not
// leak their message.
func RespondServiceError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal", nil)
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(ae.Status, ErrorEnvelope{Error: APIError{Message: http.StatusText(ae.Status), Code: ae.Code}})
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
