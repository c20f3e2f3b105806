package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/yungbote/skillbharat-backend/internal/http/handlers"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/realtime"
)

type Handlers struct {
	Progress    *httpH.ProgressHandler
	Enrollment  *httpH.EnrollmentHandler
	Course      *httpH.CourseHandler
	Certificate *httpH.CertificateHandler
	Realtime    *httpH.RealtimeHandler
	Health      *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, svc Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Progress:    httpH.NewProgressHandler(svc.Tracker, svc.Courses),
		Enrollment:  httpH.NewEnrollmentHandler(svc.Enrollment),
		Course:      httpH.NewCourseHandler(svc.Courses),
		Certificate: httpH.NewCertificateHandler(svc.Certificate),
		Realtime:    httpH.NewRealtimeHandler(log, hub),
		Health:      httpH.NewHealthHandler(dbPing(db)),
	}
}

func dbPing(db *gorm.DB) func(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
