package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*learning.Enrollment, bool, error)
	GetEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*learning.Enrollment, error)
	ListEnrollments(ctx context.Context, userID uuid.UUID) ([]*learning.Enrollment, error)
}

type enrollmentService struct {
	log         *logger.Logger
	enrollments EnrollmentReader
	agg         domainagg.EnrollmentAggregate
	now         func() time.Time
}

func NewEnrollmentService(log *logger.Logger, enrollments EnrollmentReader, agg domainagg.EnrollmentAggregate) EnrollmentService {
	if log == nil {
		log = logger.Nop()
	}
	return &enrollmentService{
		log:         log.With("service", "EnrollmentService"),
		enrollments: enrollments,
		agg:         agg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*learning.Enrollment, bool, error) {
	if userID == uuid.Nil {
		return nil, false, domainagg.ErrUnauthenticated
	}
	out, err := s.agg.Enroll(ctx, domainagg.EnrollInput{UserID: userID, CourseID: courseID, EnrolledAt: s.now()})
	if err != nil {
		return nil, false, err
	}
	if out.Created {
		s.log.Info("User enrolled", "user_id", userID, "course_id", courseID)
	}
	return out.Enrollment, out.Created, nil
}

// GetEnrollment returns nil when the user is not enrolled.
func (s *enrollmentService) GetEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*learning.Enrollment, error) {
	if userID == uuid.Nil {
		return nil, domainagg.ErrUnauthenticated
	}
	row, err := s.enrollments.GetByUserAndCourse(dbctx.New(ctx), userID, courseID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "enrollment.get", err)
	}
	return row, nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]*learning.Enrollment, error) {
	if userID == uuid.Nil {
		return nil, domainagg.ErrUnauthenticated
	}
	rows, err := s.enrollments.ListByUser(dbctx.New(ctx), userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "enrollment.list", err)
	}
	return rows, nil
}
