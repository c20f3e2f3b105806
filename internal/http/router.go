package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/skillbharat-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillbharat-backend/internal/http/middleware"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowOrigins   []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	ProgressHandler    *httpH.ProgressHandler
	EnrollmentHandler  *httpH.EnrollmentHandler
	CourseHandler      *httpH.CourseHandler
	CertificateHandler *httpH.CertificateHandler
	RealtimeHandler    *httpH.RealtimeHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Enrollment
		if cfg.EnrollmentHandler != nil {
			protected.POST("/courses/:id/enroll", cfg.EnrollmentHandler.Enroll)
			protected.GET("/enrollments", cfg.EnrollmentHandler.ListEnrollments)
		}

		// Course
		if cfg.CourseHandler != nil {
			protected.GET("/courses/:id/tree", cfg.CourseHandler.GetCourseTree)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.GET("/courses/:id/progress", cfg.ProgressHandler.GetCourseProgress)
			protected.GET("/lessons/:id/progress", cfg.ProgressHandler.GetLessonProgress)
			protected.PATCH("/lessons/:id/progress", cfg.ProgressHandler.PatchLessonProgress)
			protected.POST("/lessons/:id/complete", cfg.ProgressHandler.CompleteLesson)
			protected.POST("/lessons/:id/time", cfg.ProgressHandler.AddLessonTime)
			protected.PUT("/lessons/:id/percentage", cfg.ProgressHandler.SetLessonPercentage)
		}

		// Certificate
		if cfg.CertificateHandler != nil {
			protected.GET("/courses/:id/certificate", cfg.CertificateHandler.GetCertificate)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
