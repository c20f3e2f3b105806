package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/skillbharat-backend/internal/data/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/platform/keylock"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/platform/sendgrid"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Courses     services.CourseProgressService
	Tracker     services.ProgressTracker
	Enrollment  services.EnrollmentService
	Certificate services.CertificateService
	Resync      services.ResyncService
	Notifier    *services.FanoutNotifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, emitter services.SSEEmitter, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	lessonAgg := aggregates.NewLessonProgressAggregate(aggregates.LessonProgressAggregateDeps{
		Base:     base,
		Lessons:  reposet.Lesson,
		Progress: reposet.LessonProgress,
	})
	enrollAgg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:        base,
		Courses:     reposet.Course,
		Enrollments: reposet.Enrollment,
	})

	notifier := wireNotifier(log, cfg.Notify, reposet, emitter)

	// Lesson and course locks share one map; their keys never collide.
	locks := keylock.New()

	courses := services.NewCourseProgressService(services.CourseProgressDeps{
		Log:         log,
		Trees:       reposet.Course,
		Progress:    reposet.LessonProgress,
		Enrollments: reposet.Enrollment,
		EnrollAgg:   enrollAgg,
		Notifier:    notifier,
		Locks:       locks,
	})
	tracker := services.NewProgressTracker(services.ProgressTrackerDeps{
		Log:       log,
		Progress:  reposet.LessonProgress,
		LessonAgg: lessonAgg,
		Courses:   courses,
		Locks:     locks,
	})

	catalog, err := services.LoadTemplateCatalog(cfg.Certificate.TemplatesPath)
	if err != nil {
		return Services{}, fmt.Errorf("certificate templates: %w", err)
	}
	certificates, err := services.NewCertificateService(services.CertificateDeps{
		Log:          log,
		Users:        reposet.User,
		Trees:        reposet.Course,
		Enrollments:  reposet.Enrollment,
		Certificates: reposet.Certificate,
		Templates:    catalog,
		Issuer:       cfg.Certificate.Issuer,
	})
	if err != nil {
		return Services{}, fmt.Errorf("certificate service: %w", err)
	}

	return Services{
		Auth:        services.NewAuthService(log, reposet.User, cfg.Auth.JWTSecretKey),
		Courses:     courses,
		Tracker:     tracker,
		Enrollment:  services.NewEnrollmentService(log, reposet.Enrollment, enrollAgg),
		Certificate: certificates,
		Resync:      services.NewResyncService(log, reposet.Enrollment, courses, cfg.Resync.Concurrency),
		Notifier:    notifier,
	}, nil
}

func wireNotifier(log *logger.Logger, cfg NotifyConfig, reposet Repos, emitter services.SSEEmitter) *services.FanoutNotifier {
	fanout := services.NewFanoutNotifier(log)
	if emitter != nil {
		fanout.Add("sse", services.NewSSENotifier(emitter))
	}
	if cfg.EmailEnabled {
		client, err := sendgrid.NewFromEnv(log)
		if err != nil {
			log.Warn("completion email disabled", "error", err)
		} else {
			fanout.AddAsync("email", services.NewCompletionEmailNotifier(client, reposet.User))
		}
	}
	fanout.AddAsync("webhook", services.NewCompletionWebhookNotifier(services.WebhookConfig{
		URL:        cfg.WebhookURL,
		Timeout:    cfg.WebhookTimeout,
		MaxRetries: cfg.WebhookMaxRetries,
	}))
	return fanout
}
