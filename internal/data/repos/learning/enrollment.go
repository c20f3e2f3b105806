package learning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	// CreateIfAbsent inserts the (user, course) row; created is false when it already existed.
	CreateIfAbsent(dbc dbctx.Context, userID, courseID uuid.UUID, enrolledAt time.Time) (row *types.Enrollment, created bool, err error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
	// UpdateProgress writes the cached progress of a not-yet-completed enrollment.
	UpdateProgress(dbc dbctx.Context, userID, courseID uuid.UUID, progress int, now time.Time) (bool, error)
	// MarkCompleted flips completed once; ok is false when the row was already completed or missing.
	MarkCompleted(dbc dbctx.Context, userID, courseID uuid.UUID, completedAt time.Time) (bool, error)
	// ListStale returns open enrollments with lesson progress newer than their cached value.
	ListStale(dbc dbctx.Context, limit int) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) CreateIfAbsent(dbc dbctx.Context, userID, courseID uuid.UUID, enrolledAt time.Time) (*types.Enrollment, bool, error) {
	row := &types.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: enrolledAt,
		CreatedAt:  enrolledAt,
		UpdatedAt:  enrolledAt,
	}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0
	existing, err := r.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	return existing, created, nil
}

func (r *enrollmentRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	var row types.Enrollment
	err := dbc.DB(r.db).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *enrollmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	var results []*types.Enrollment
	if userID == uuid.Nil {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) UpdateProgress(dbc dbctx.Context, userID, courseID uuid.UUID, progress int, now time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, false).
		Updates(map[string]interface{}{
			"progress":   learning.ClampPercentage(progress),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) MarkCompleted(dbc dbctx.Context, userID, courseID uuid.UUID, completedAt time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, false).
		Updates(map[string]interface{}{
			"progress":     learning.MaxProgressPercentage,
			"completed":    true,
			"completed_at": completedAt,
			"updated_at":   completedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) ListStale(dbc dbctx.Context, limit int) ([]*types.Enrollment, error) {
	if limit <= 0 {
		limit = 100
	}
	var results []*types.Enrollment
	err := dbc.DB(r.db).
		Where("enrollment.completed = ?", false).
		Where(`EXISTS (
			SELECT 1 FROM lesson_progress lp
			JOIN lesson l ON l.id = lp.lesson_id AND l.deleted_at IS NULL
			JOIN course_module m ON m.id = l.module_id AND m.deleted_at IS NULL
			WHERE lp.user_id = enrollment.user_id
			  AND m.course_id = enrollment.course_id
			  AND lp.updated_at > enrollment.updated_at
		)`).
		Order("enrollment.updated_at ASC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
