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

type LessonProgressRepo interface {
	// GetByUserAndLesson returns nil when no record exists yet.
	GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	ListByUserAndLessons(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error)
	// ApplyUpdate merges upd onto the (user, lesson) record in one statement, creating it when absent.
	ApplyUpdate(dbc dbctx.Context, userID, lessonID uuid.UUID, upd types.LessonProgressUpdate, now time.Time) (*types.LessonProgress, error)
	// IncrementTimeSpent adds minutes atomically at the store.
	IncrementTimeSpent(dbc dbctx.Context, userID, lessonID uuid.UUID, minutes int, now time.Time) (*types.LessonProgress, error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return &lessonProgressRepo{db: db, log: baseLog.With("repo", "LessonProgressRepo")}
}

func (r *lessonProgressRepo) GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	var row types.LessonProgress
	err := dbc.DB(r.db).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonProgressRepo) ListByUserAndLessons(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error) {
	var results []*types.LessonProgress
	if userID == uuid.Nil || len(lessonIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonProgressRepo) ensureRow(dbc dbctx.Context, userID, lessonID uuid.UUID, now time.Time) error {
	row := &types.LessonProgress{
		UserID:    userID,
		LessonID:  lessonID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(row).Error
}

func (r *lessonProgressRepo) ApplyUpdate(dbc dbctx.Context, userID, lessonID uuid.UUID, upd types.LessonProgressUpdate, now time.Time) (*types.LessonProgress, error) {
	if err := r.ensureRow(dbc, userID, lessonID, now); err != nil {
		return nil, err
	}

	upd = upd.Normalize()
	updates := map[string]interface{}{"updated_at": now}
	if upd.TimeSpentMinutes != nil {
		v := *upd.TimeSpentMinutes
		updates["time_spent_minutes"] = gorm.Expr("CASE WHEN time_spent_minutes >= ? THEN time_spent_minutes ELSE ? END", v, v)
	}
	switch {
	case upd.Completes():
		updates["completed"] = true
		updates["progress_percentage"] = learning.MaxProgressPercentage
		updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", now)
	case upd.ProgressPercentage != nil:
		updates["progress_percentage"] = gorm.Expr("CASE WHEN completed THEN 100 ELSE ? END", *upd.ProgressPercentage)
	}

	if err := dbc.DB(r.db).
		Model(&types.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetByUserAndLesson(dbc, userID, lessonID)
}

func (r *lessonProgressRepo) IncrementTimeSpent(dbc dbctx.Context, userID, lessonID uuid.UUID, minutes int, now time.Time) (*types.LessonProgress, error) {
	if err := r.ensureRow(dbc, userID, lessonID, now); err != nil {
		return nil, err
	}
	if minutes > 0 {
		if err := dbc.DB(r.db).
			Model(&types.LessonProgress{}).
			Where("user_id = ? AND lesson_id = ?", userID, lessonID).
			Updates(map[string]interface{}{
				"time_spent_minutes": gorm.Expr("time_spent_minutes + ?", minutes),
				"updated_at":         now,
			}).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByUserAndLesson(dbc, userID, lessonID)
}
