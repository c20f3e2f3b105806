package services

import (
	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/domain/user"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
)

// Read ports. The data/repos implementations satisfy them; tests use in-memory fakes.

type CourseTreeReader interface {
	GetTree(dbc dbctx.Context, courseID uuid.UUID) (*learning.CourseTree, error)
}

type LessonProgressReader interface {
	GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*learning.LessonProgress, error)
	ListByUserAndLessons(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*learning.LessonProgress, error)
}

type EnrollmentReader interface {
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*learning.Enrollment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*learning.Enrollment, error)
}

type StaleEnrollmentLister interface {
	ListStale(dbc dbctx.Context, limit int) ([]*learning.Enrollment, error)
}

type UserReader interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*user.User, error)
}

type CertificateStore interface {
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*learning.Certificate, error)
	CreateIfAbsent(dbc dbctx.Context, row *learning.Certificate) (*learning.Certificate, bool, error)
}
