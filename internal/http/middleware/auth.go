package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/http/response"
	"github.com/yungbote/skillbharat-backend/internal/platform/apierr"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errMissingToken)
			c.Abort()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Rejected token", "error", err)
			ae := apierr.From(err)
			if ae.Status >= http.StatusInternalServerError {
				response.RespondServiceError(c, err)
			} else {
				response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errInvalidToken)
			}
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		if ctxutil.UserID(ctx) == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errInvalidToken)
			c.Abort()
			return
		}
		c.Next()
	}
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errMissingToken authError = "missing or invalid token"
	errInvalidToken authError = "invalid or expired token"
)

// extractTokenFromAll accepts ?token= for EventSource clients, which cannot set headers.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := strings.TrimSpace(c.Query("token")); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
