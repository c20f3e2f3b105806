package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/keylock"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type RecomputeResult struct {
	Snapshot      learning.CourseProgressSnapshot `json:"snapshot"`
	Enrollment    *learning.Enrollment            `json:"enrollment,omitempty"`
	JustCompleted bool                            `json:"just_completed"`
}

type CourseProgressService interface {
	GetCourseTree(ctx context.Context, courseID uuid.UUID) (*learning.CourseTree, error)
	// Recompute rolls the user's lesson progress up to the course and syncs the enrollment.
	Recompute(ctx context.Context, userID, courseID uuid.UUID) (*RecomputeResult, error)
	// RecomputeAfterLesson is Recompute with the triggering lesson attached to the notification.
	RecomputeAfterLesson(ctx context.Context, userID, courseID uuid.UUID, lesson *learning.LessonProgress) (*RecomputeResult, error)
}

type CourseProgressDeps struct {
	Log         *logger.Logger
	Trees       CourseTreeReader
	Progress    LessonProgressReader
	Enrollments EnrollmentReader
	EnrollAgg   domainagg.EnrollmentAggregate
	Notifier    ProgressNotifier
	Locks       *keylock.Map
	Now         func() time.Time
}

type courseProgressService struct {
	log         *logger.Logger
	trees       CourseTreeReader
	progress    LessonProgressReader
	enrollments EnrollmentReader
	enrollAgg   domainagg.EnrollmentAggregate
	notifier    ProgressNotifier
	locks       *keylock.Map
	now         func() time.Time
}

func NewCourseProgressService(deps CourseProgressDeps) CourseProgressService {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Locks == nil {
		deps.Locks = keylock.New()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &courseProgressService{
		log:         deps.Log.With("service", "CourseProgressService"),
		trees:       deps.Trees,
		progress:    deps.Progress,
		enrollments: deps.Enrollments,
		enrollAgg:   deps.EnrollAgg,
		notifier:    deps.Notifier,
		locks:       deps.Locks,
		now:         deps.Now,
	}
}

func (s *courseProgressService) GetCourseTree(ctx context.Context, courseID uuid.UUID) (*learning.CourseTree, error) {
	if courseID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, "course_progress.get_tree", "course id required", nil)
	}
	tree, err := s.trees.GetTree(dbctx.New(ctx), courseID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "course_progress.get_tree", err)
	}
	if tree == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "course_progress.get_tree", "course not found", nil)
	}
	return tree, nil
}

func (s *courseProgressService) Recompute(ctx context.Context, userID, courseID uuid.UUID) (*RecomputeResult, error) {
	return s.recompute(ctx, userID, courseID, nil)
}

func (s *courseProgressService) RecomputeAfterLesson(ctx context.Context, userID, courseID uuid.UUID, lesson *learning.LessonProgress) (*RecomputeResult, error) {
	return s.recompute(ctx, userID, courseID, lesson)
}

func (s *courseProgressService) recompute(ctx context.Context, userID, courseID uuid.UUID, lesson *learning.LessonProgress) (*RecomputeResult, error) {
	const op = "course_progress.recompute"
	if userID == uuid.Nil {
		return &RecomputeResult{Snapshot: learning.ComputeSnapshot(nil, nil)}, domainagg.ErrUnauthenticated
	}
	if courseID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "course id required", nil)
	}

	now := s.now()
	res, tree, wasEnrolled, err := s.syncCourse(ctx, op, userID, courseID, now)
	if err != nil {
		return nil, err
	}

	m := observability.Current()
	m.ObserveSnapshot(res.Snapshot.OverallProgress)
	if res.JustCompleted {
		m.IncCourseCompleted()
		s.log.Info("Course completed",
			"user_id", userID,
			"course_id", courseID,
			"was_enrolled", wasEnrolled,
		)
	}

	// Runs outside the course lock.
	if s.notifier != nil {
		ev := ProgressEvent{
			UserID:        userID,
			CourseID:      courseID,
			Lesson:        lesson,
			Snapshot:      res.Snapshot,
			JustCompleted: res.JustCompleted,
			At:            now,
		}
		if tree.Course != nil {
			ev.CourseTitle = tree.Course.Title
		}
		if res.Enrollment != nil && res.Enrollment.CompletedAt != nil {
			ev.At = *res.Enrollment.CompletedAt
		}
		_ = s.notifier.Notify(ctx, ev)
	}
	return res, nil
}

// syncCourse computes the snapshot and writes it to the enrollment while holding the
// (user, course) lock.
func (s *courseProgressService) syncCourse(ctx context.Context, op string, userID, courseID uuid.UUID, now time.Time) (*RecomputeResult, *learning.CourseTree, bool, error) {
	unlock := s.locks.Lock("course:" + userID.String() + ":" + courseID.String())
	defer unlock()

	var (
		tree   *learning.CourseTree
		before *learning.Enrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.trees.GetTree(dbctx.New(gctx), courseID)
		tree = t
		return err
	})
	if s.enrollments != nil {
		g.Go(func() error {
			e, err := s.enrollments.GetByUserAndCourse(dbctx.New(gctx), userID, courseID)
			before = e
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, false, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if tree == nil {
		return nil, nil, false, domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
	}

	rows, err := s.progress.ListByUserAndLessons(dbctx.New(ctx), userID, tree.LessonIDs())
	if err != nil {
		return nil, nil, false, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	snap := learning.ComputeSnapshot(tree, learning.IndexProgress(rows))

	res := &RecomputeResult{Snapshot: snap}
	if snap.IsCompleted {
		out, err := s.enrollAgg.MarkCompleted(ctx, domainagg.MarkCompletedInput{
			UserID:      userID,
			CourseID:    courseID,
			CompletedAt: now,
		})
		if err != nil {
			return nil, nil, false, err
		}
		res.Enrollment = out.Enrollment
		res.JustCompleted = out.JustCompleted
	} else {
		out, err := s.enrollAgg.SyncProgress(ctx, domainagg.SyncProgressInput{
			UserID:   userID,
			CourseID: courseID,
			Progress: snap.OverallProgress,
			SyncedAt: now,
		})
		if err != nil {
			return nil, nil, false, err
		}
		res.Enrollment = out.Enrollment
	}
	return res, tree, before != nil, nil
}
