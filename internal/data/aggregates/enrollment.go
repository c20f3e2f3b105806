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

type EnrollmentAggregateDeps struct {
	Base BaseDeps

	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
}

type enrollmentAggregate struct {
	deps EnrollmentAggregateDeps
}

func NewEnrollmentAggregate(deps EnrollmentAggregateDeps) domainagg.EnrollmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &enrollmentAggregate{deps: deps}
}

func (a *enrollmentAggregate) validate(op string, userID, courseID uuid.UUID) error {
	if userID == uuid.Nil {
		return domainagg.ErrUnauthenticated
	}
	if courseID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if a.deps.Enrollments == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate repos not configured", nil)
	}
	return nil
}

func (a *enrollmentAggregate) Enroll(ctx context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	const op = "Learning.Enrollment.Enroll"
	var out domainagg.EnrollResult
	if err := a.validate(op, in.UserID, in.CourseID); err != nil {
		return out, err
	}
	if a.deps.Courses == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "course repo not configured", nil)
	}
	at := a.deps.Base.at(in.EnrolledAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		course, err := a.deps.Courses.GetByID(dbc, in.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("course not found: %s", in.CourseID), nil)
		}
		row, created, err := a.deps.Enrollments.CreateIfAbsent(dbc, in.UserID, in.CourseID, at)
		if err != nil {
			return err
		}
		if row == nil {
			return InvariantError("enrollment missing after create")
		}
		row.Course = course
		out = domainagg.EnrollResult{Enrollment: row, Created: created}
		return nil
	})
	return out, err
}

func (a *enrollmentAggregate) SyncProgress(ctx context.Context, in domainagg.SyncProgressInput) (domainagg.SyncProgressResult, error) {
	const op = "Learning.Enrollment.SyncProgress"
	var out domainagg.SyncProgressResult
	if err := a.validate(op, in.UserID, in.CourseID); err != nil {
		return out, err
	}
	at := a.deps.Base.at(in.SyncedAt)
	progress := learning.ClampPercentage(in.Progress)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, _, err := a.deps.Enrollments.CreateIfAbsent(dbc, in.UserID, in.CourseID, at)
		if err != nil {
			return err
		}
		if row == nil {
			return InvariantError("enrollment missing after create")
		}
		if !CanTransition(row.Status(), learning.EnrollmentInProgress) {
			out.Enrollment = row
			return nil
		}
		ok, err := a.deps.Enrollments.UpdateProgress(dbc, in.UserID, in.CourseID, progress, at)
		if err != nil {
			return err
		}
		row, err = a.deps.Enrollments.GetByUserAndCourse(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if !ok && (row == nil || !row.Completed) {
			return RequireCASSuccess(false, "enrollment progress write lost")
		}
		out.Enrollment = row
		return nil
	})
	return out, err
}

func (a *enrollmentAggregate) MarkCompleted(ctx context.Context, in domainagg.MarkCompletedInput) (domainagg.MarkCompletedResult, error) {
	const op = "Learning.Enrollment.MarkCompleted"
	var out domainagg.MarkCompletedResult
	if err := a.validate(op, in.UserID, in.CourseID); err != nil {
		return out, err
	}
	at := a.deps.Base.at(in.CompletedAt)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, _, err := a.deps.Enrollments.CreateIfAbsent(dbc, in.UserID, in.CourseID, at)
		if err != nil {
			return err
		}
		if row == nil {
			return InvariantError("enrollment missing after create")
		}
		if err := RequireTransition(row.Status(), learning.EnrollmentCompleted); err != nil {
			return err
		}
		flipped, err := a.deps.Enrollments.MarkCompleted(dbc, in.UserID, in.CourseID, at)
		if err != nil {
			return err
		}
		row, err = a.deps.Enrollments.GetByUserAndCourse(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		if row == nil || !row.Completed {
			return InvariantError("enrollment not completed after mark")
		}
		out = domainagg.MarkCompletedResult{Enrollment: row, JustCompleted: flipped}
		return nil
	})
	return out, err
}
