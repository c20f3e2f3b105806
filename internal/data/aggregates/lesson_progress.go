package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/data/repos"
	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
)

type LessonProgressAggregateDeps struct {
	Base BaseDeps

	Lessons  repos.LessonRepo
	Progress repos.LessonProgressRepo
}

type lessonProgressAggregate struct {
	deps LessonProgressAggregateDeps
}

func NewLessonProgressAggregate(deps LessonProgressAggregateDeps) domainagg.LessonProgressAggregate {
	deps.Base = deps.Base.withDefaults()
	return &lessonProgressAggregate{deps: deps}
}

func (a *lessonProgressAggregate) validate(op string, userID, lessonID uuid.UUID) error {
	if userID == uuid.Nil {
		return domainagg.ErrUnauthenticated
	}
	if lessonID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing lesson_id", nil)
	}
	if a.deps.Lessons == nil || a.deps.Progress == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "lesson progress aggregate repos not configured", nil)
	}
	return nil
}

// resolve loads the owning course and the record before the write.
func (a *lessonProgressAggregate) resolve(dbc dbctx.Context, op string, userID, lessonID uuid.UUID) (uuid.UUID, *learning.LessonProgress, error) {
	courseID, err := a.deps.Lessons.GetCourseID(dbc, lessonID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if courseID == uuid.Nil {
		return uuid.Nil, nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("lesson not found: %s", lessonID), nil)
	}
	before, err := a.deps.Progress.GetByUserAndLesson(dbc, userID, lessonID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return courseID, before, nil
}

func (a *lessonProgressAggregate) ApplyUpdate(ctx context.Context, in domainagg.ApplyLessonUpdateInput) (domainagg.LessonProgressResult, error) {
	const op = "Learning.LessonProgress.ApplyUpdate"
	var out domainagg.LessonProgressResult
	if err := a.validate(op, in.UserID, in.LessonID); err != nil {
		return out, err
	}
	if in.Update.IsEmpty() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "empty progress update", nil)
	}
	at := a.deps.Base.at(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		courseID, before, err := a.resolve(dbc, op, in.UserID, in.LessonID)
		if err != nil {
			return err
		}
		row, err := a.deps.Progress.ApplyUpdate(dbc, in.UserID, in.LessonID, in.Update, at)
		if err != nil {
			return err
		}
		if row == nil {
			return InvariantError("lesson progress missing after upsert")
		}
		if row.Completed && row.ProgressPercentage != learning.MaxProgressPercentage {
			return InvariantError("completed lesson below 100 percent")
		}
		out = domainagg.LessonProgressResult{
			Progress:      row,
			CourseID:      courseID,
			JustCompleted: row.Completed && (before == nil || !before.Completed),
		}
		return nil
	})
	return out, err
}

func (a *lessonProgressAggregate) AddTimeSpent(ctx context.Context, in domainagg.AddTimeSpentInput) (domainagg.LessonProgressResult, error) {
	const op = "Learning.LessonProgress.AddTimeSpent"
	var out domainagg.LessonProgressResult
	if err := a.validate(op, in.UserID, in.LessonID); err != nil {
		return out, err
	}
	if in.Minutes < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "additional minutes must be >= 0", nil)
	}
	at := a.deps.Base.at(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		courseID, _, err := a.resolve(dbc, op, in.UserID, in.LessonID)
		if err != nil {
			return err
		}
		row, err := a.deps.Progress.IncrementTimeSpent(dbc, in.UserID, in.LessonID, in.Minutes, at)
		if err != nil {
			return err
		}
		if row == nil {
			return InvariantError("lesson progress missing after increment")
		}
		out = domainagg.LessonProgressResult{Progress: row, CourseID: courseID}
		return nil
	})
	return out, err
}
