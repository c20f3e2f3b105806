package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/skillbharat-backend/internal/http"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	log.Info("Wiring router...")
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:                log,
		ServiceName:        cfg.ServiceName,
		AllowOrigins:       cfg.HTTP.AllowOrigins,
		Metrics:            metrics,
		AuthMiddleware:     middleware.Auth,
		ProgressHandler:    handlers.Progress,
		EnrollmentHandler:  handlers.Enrollment,
		CourseHandler:      handlers.Course,
		CertificateHandler: handlers.Certificate,
		RealtimeHandler:    handlers.Realtime,
		HealthHandler:      handlers.Health,
	})
}
