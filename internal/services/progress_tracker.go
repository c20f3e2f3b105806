package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/keylock"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

// LessonUpdateResult is the confirmed lesson record plus the course recompute it triggered.
// Course is nil when the recompute failed; the error is returned alongside.
type LessonUpdateResult struct {
	Progress *learning.LessonProgress `json:"progress"`
	Course   *RecomputeResult         `json:"course,omitempty"`
}

type ProgressTracker interface {
	GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*learning.LessonProgress, error)
	UpdateProgress(ctx context.Context, userID, lessonID uuid.UUID, upd learning.LessonProgressUpdate) (*LessonUpdateResult, error)
	MarkAsCompleted(ctx context.Context, userID, lessonID uuid.UUID) (*LessonUpdateResult, error)
	UpdateTimeSpent(ctx context.Context, userID, lessonID uuid.UUID, additionalMinutes int) (*LessonUpdateResult, error)
	UpdateProgressPercentage(ctx context.Context, userID, lessonID uuid.UUID, percentage int) (*LessonUpdateResult, error)
}

type ProgressTrackerDeps struct {
	Log       *logger.Logger
	Progress  LessonProgressReader
	LessonAgg domainagg.LessonProgressAggregate
	Courses   CourseProgressService
	Locks     *keylock.Map
	Now       func() time.Time
}

type progressTracker struct {
	log       *logger.Logger
	progress  LessonProgressReader
	lessonAgg domainagg.LessonProgressAggregate
	courses   CourseProgressService
	locks     *keylock.Map
	now       func() time.Time
}

func NewProgressTracker(deps ProgressTrackerDeps) ProgressTracker {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Locks == nil {
		deps.Locks = keylock.New()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &progressTracker{
		log:       deps.Log.With("service", "ProgressTracker"),
		progress:  deps.Progress,
		lessonAgg: deps.LessonAgg,
		courses:   deps.Courses,
		locks:     deps.Locks,
		now:       deps.Now,
	}
}

func lessonKey(userID, lessonID uuid.UUID) string {
	return "lesson:" + userID.String() + ":" + lessonID.String()
}

func (t *progressTracker) GetLessonProgress(ctx context.Context, userID, lessonID uuid.UUID) (*learning.LessonProgress, error) {
	if userID == uuid.Nil {
		return nil, domainagg.ErrUnauthenticated
	}
	if lessonID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, "progress.get_lesson", "lesson id required", nil)
	}
	row, err := t.progress.GetByUserAndLesson(dbctx.New(ctx), userID, lessonID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "progress.get_lesson", err)
	}
	return row, nil
}

func (t *progressTracker) UpdateProgress(ctx context.Context, userID, lessonID uuid.UUID, upd learning.LessonProgressUpdate) (*LessonUpdateResult, error) {
	return t.apply(ctx, "update", userID, lessonID, upd)
}

func (t *progressTracker) MarkAsCompleted(ctx context.Context, userID, lessonID uuid.UUID) (*LessonUpdateResult, error) {
	done := true
	full := learning.MaxProgressPercentage
	return t.apply(ctx, "complete", userID, lessonID, learning.LessonProgressUpdate{
		Completed:          &done,
		ProgressPercentage: &full,
	})
}

func (t *progressTracker) UpdateProgressPercentage(ctx context.Context, userID, lessonID uuid.UUID, percentage int) (*LessonUpdateResult, error) {
	pct := learning.ClampPercentage(percentage)
	upd := learning.LessonProgressUpdate{ProgressPercentage: &pct}
	if pct == learning.MaxProgressPercentage {
		done := true
		upd.Completed = &done
	}
	return t.apply(ctx, "percentage", userID, lessonID, upd)
}

func (t *progressTracker) UpdateTimeSpent(ctx context.Context, userID, lessonID uuid.UUID, additionalMinutes int) (*LessonUpdateResult, error) {
	if userID == uuid.Nil {
		return nil, domainagg.ErrUnauthenticated
	}
	unlock := t.locks.Lock(lessonKey(userID, lessonID))
	out, err := t.lessonAgg.AddTimeSpent(ctx, domainagg.AddTimeSpentInput{
		UserID:   userID,
		LessonID: lessonID,
		Minutes:  additionalMinutes,
		At:       t.now(),
	})
	unlock()
	if err != nil {
		return nil, err
	}
	observability.Current().IncLessonProgressWrite("time")
	return t.afterWrite(ctx, userID, out)
}

func (t *progressTracker) apply(ctx context.Context, kind string, userID, lessonID uuid.UUID, upd learning.LessonProgressUpdate) (*LessonUpdateResult, error) {
	if userID == uuid.Nil {
		return nil, domainagg.ErrUnauthenticated
	}
	unlock := t.locks.Lock(lessonKey(userID, lessonID))
	out, err := t.lessonAgg.ApplyUpdate(ctx, domainagg.ApplyLessonUpdateInput{
		UserID:   userID,
		LessonID: lessonID,
		Update:   upd,
		At:       t.now(),
	})
	unlock()
	if err != nil {
		return nil, err
	}
	observability.Current().IncLessonProgressWrite(kind)
	if out.JustCompleted {
		t.log.Debug("Lesson completed", "user_id", userID, "lesson_id", lessonID)
	}
	return t.afterWrite(ctx, userID, out)
}

func (t *progressTracker) afterWrite(ctx context.Context, userID uuid.UUID, out domainagg.LessonProgressResult) (*LessonUpdateResult, error) {
	res := &LessonUpdateResult{Progress: out.Progress}
	if t.courses == nil || out.CourseID == uuid.Nil {
		return res, nil
	}
	course, err := t.courses.RecomputeAfterLesson(ctx, userID, out.CourseID, out.Progress)
	if err != nil {
		t.log.Warn("Course recompute after lesson write failed",
			"user_id", userID,
			"course_id", out.CourseID,
			"error", err,
		)
		return res, err
	}
	res.Course = course
	return res, nil
}
