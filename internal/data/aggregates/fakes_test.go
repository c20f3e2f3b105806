package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
)

type fakeCourseRepo struct{}

func (fakeCourseRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.Course, error) {
	return &types.Course{ID: id}, nil
}

func (fakeCourseRepo) GetTree(_ dbctx.Context, id uuid.UUID) (*types.CourseTree, error) {
	return &types.CourseTree{Course: &types.Course{ID: id}}, nil
}

// fakeEnrollmentRepo keeps a single row in memory.
type fakeEnrollmentRepo struct {
	row *types.Enrollment
}

func (f *fakeEnrollmentRepo) CreateIfAbsent(_ dbctx.Context, userID, courseID uuid.UUID, at time.Time) (*types.Enrollment, bool, error) {
	if f.row != nil {
		cp := *f.row
		return &cp, false, nil
	}
	f.row = &types.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID, EnrolledAt: at}
	cp := *f.row
	return &cp, true, nil
}

func (f *fakeEnrollmentRepo) GetByUserAndCourse(dbctx.Context, uuid.UUID, uuid.UUID) (*types.Enrollment, error) {
	if f.row == nil {
		return nil, nil
	}
	cp := *f.row
	return &cp, nil
}

func (f *fakeEnrollmentRepo) ListByUser(dbctx.Context, uuid.UUID) ([]*types.Enrollment, error) {
	if f.row == nil {
		return nil, nil
	}
	return []*types.Enrollment{f.row}, nil
}

func (f *fakeEnrollmentRepo) UpdateProgress(_ dbctx.Context, _, _ uuid.UUID, progress int, _ time.Time) (bool, error) {
	if f.row == nil || f.row.Completed {
		return false, nil
	}
	f.row.Progress = progress
	return true, nil
}

func (f *fakeEnrollmentRepo) MarkCompleted(_ dbctx.Context, _, _ uuid.UUID, at time.Time) (bool, error) {
	if f.row == nil || f.row.Completed {
		return false, nil
	}
	f.row.Progress = 100
	f.row.Completed = true
	f.row.CompletedAt = &at
	return true, nil
}

func (f *fakeEnrollmentRepo) ListStale(dbctx.Context, int) ([]*types.Enrollment, error) {
	return nil, nil
}

// commitFailRunner runs the body (through inner when set, so the write really commits) and
// then fails as if the commit acknowledgement was lost.
type commitFailRunner struct {
	inner     TxRunner
	err       error
	bodyCalls int
}

func (r *commitFailRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.bodyCalls++
	var err error
	if r.inner != nil {
		err = r.inner.InTx(ctx, fn)
	} else {
		err = fn(dbctx.Context{Ctx: ctx})
	}
	if err != nil {
		return err
	}
	return r.err
}
