package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type LessonRepo interface {
	// GetCourseID resolves the course owning a lesson; uuid.Nil when the lesson is unknown.
	GetCourseID(dbc dbctx.Context, lessonID uuid.UUID) (uuid.UUID, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) GetCourseID(dbc dbctx.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	var mod types.CourseModule
	err := dbc.DB(r.db).
		Model(&types.CourseModule{}).
		Joins("JOIN lesson ON lesson.module_id = course_module.id AND lesson.deleted_at IS NULL").
		Where("lesson.id = ?", lessonID).
		Take(&mod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return mod.CourseID, nil
}
