package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/domain/user"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
)

var errStoreDown = errors.New("store unavailable")

type upKey struct{ a, b uuid.UUID }

// memStore is an in-memory backing for every port the services use.
type memStore struct {
	mu           sync.Mutex
	trees        map[uuid.UUID]*learning.CourseTree
	lessonCourse map[uuid.UUID]uuid.UUID
	progress     map[upKey]*learning.LessonProgress
	enrollments  map[upKey]*learning.Enrollment
	users        map[uuid.UUID]*user.User
	certs        map[upKey]*learning.Certificate
	fail         map[string]error
	now          time.Time
}

func newMemStore() *memStore {
	return &memStore{
		trees:        map[uuid.UUID]*learning.CourseTree{},
		lessonCourse: map[uuid.UUID]uuid.UUID{},
		progress:     map[upKey]*learning.LessonProgress{},
		enrollments:  map[upKey]*learning.Enrollment{},
		users:        map[uuid.UUID]*user.User{},
		certs:        map[upKey]*learning.Certificate{},
		fail:         map[string]error{},
		now:          time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func (s *memStore) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *memStore) advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}

func (s *memStore) failWith(op string, err error) {
	s.mu.Lock()
	s.fail[op] = err
	s.mu.Unlock()
}

func (s *memStore) failure(op string) error {
	return s.fail[op]
}

// addCourse builds a course whose modules have the given lesson counts, 10 minutes each.
func (s *memStore) addCourse(title string, lessonsPerModule ...int) *learning.CourseTree {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &learning.Course{ID: uuid.New(), Title: title, InstructorName: "Asha Rao"}
	tree := &learning.CourseTree{Course: c, Modules: []learning.ModuleTree{}}
	for mi, n := range lessonsPerModule {
		m := &learning.CourseModule{ID: uuid.New(), CourseID: c.ID, Index: mi, Title: "Module"}
		mt := learning.ModuleTree{Module: m, Lessons: []*learning.Lesson{}}
		for li := 0; li < n; li++ {
			l := &learning.Lesson{ID: uuid.New(), ModuleID: m.ID, Index: li, Title: "Lesson", DurationMinutes: 10}
			mt.Lessons = append(mt.Lessons, l)
			s.lessonCourse[l.ID] = c.ID
		}
		tree.Modules = append(tree.Modules, mt)
	}
	s.trees[c.ID] = tree
	return tree
}

func (s *memStore) addUser(first, last, email string) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user.User{ID: uuid.New(), FirstName: first, LastName: last, Email: email}
	s.users[u.ID] = u
	return u
}

func cloneProgress(p *learning.LessonProgress) *learning.LessonProgress {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func cloneEnrollment(e *learning.Enrollment) *learning.Enrollment {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// ---- read ports ----

func (s *memStore) GetTree(_ dbctx.Context, courseID uuid.UUID) (*learning.CourseTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("tree"); err != nil {
		return nil, err
	}
	return s.trees[courseID], nil
}

func (s *memStore) GetByUserAndLesson(_ dbctx.Context, userID, lessonID uuid.UUID) (*learning.LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("get_progress"); err != nil {
		return nil, err
	}
	return cloneProgress(s.progress[upKey{userID, lessonID}]), nil
}

func (s *memStore) ListByUserAndLessons(_ dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*learning.LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("list_progress"); err != nil {
		return nil, err
	}
	var out []*learning.LessonProgress
	for _, id := range lessonIDs {
		if p := s.progress[upKey{userID, id}]; p != nil {
			out = append(out, cloneProgress(p))
		}
	}
	return out, nil
}

func (s *memStore) GetByUserAndCourse(_ dbctx.Context, userID, courseID uuid.UUID) (*learning.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("get_enrollment"); err != nil {
		return nil, err
	}
	return cloneEnrollment(s.enrollments[upKey{userID, courseID}]), nil
}

func (s *memStore) ListByUser(_ dbctx.Context, userID uuid.UUID) ([]*learning.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*learning.Enrollment
	for k, e := range s.enrollments {
		if k.a == userID {
			out = append(out, cloneEnrollment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out, nil
}

// ListStale returns every open enrollment with lesson progress newer than the enrollment row.
func (s *memStore) ListStale(_ dbctx.Context, limit int) ([]*learning.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("list_stale"); err != nil {
		return nil, err
	}
	var out []*learning.Enrollment
	for k, e := range s.enrollments {
		if e.Completed {
			continue
		}
		for pk, p := range s.progress {
			if pk.a == k.a && s.lessonCourse[pk.b] == k.b && p.UpdatedAt.After(e.UpdatedAt) {
				out = append(out, cloneEnrollment(e))
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ---- users / certificates ----

type memUsers struct{ s *memStore }

func (u memUsers) GetByID(_ dbctx.Context, id uuid.UUID) (*user.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if err := u.s.failure("get_user"); err != nil {
		return nil, err
	}
	if v := u.s.users[id]; v != nil {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

type memCerts struct{ s *memStore }

func (c memCerts) GetByUserAndCourse(_ dbctx.Context, userID, courseID uuid.UUID) (*learning.Certificate, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if v := c.s.certs[upKey{userID, courseID}]; v != nil {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (c memCerts) CreateIfAbsent(_ dbctx.Context, row *learning.Certificate) (*learning.Certificate, bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	k := upKey{row.UserID, row.CourseID}
	if v := c.s.certs[k]; v != nil {
		cp := *v
		return &cp, false, nil
	}
	cp := *row
	cp.ID = uuid.New()
	c.s.certs[k] = &cp
	out := cp
	return &out, true, nil
}

// ---- aggregates ----

type memLessonAgg struct{ s *memStore }

func (a memLessonAgg) ApplyUpdate(_ context.Context, in domainagg.ApplyLessonUpdateInput) (domainagg.LessonProgressResult, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("apply"); err != nil {
		return domainagg.LessonProgressResult{}, domainagg.Wrap(domainagg.CodeInternal, "lesson_progress.apply_update", err)
	}
	if in.Update.IsEmpty() {
		return domainagg.LessonProgressResult{}, domainagg.NewError(domainagg.CodeValidation, "lesson_progress.apply_update", "empty update", nil)
	}
	courseID, ok := s.lessonCourse[in.LessonID]
	if !ok {
		return domainagg.LessonProgressResult{}, domainagg.NewError(domainagg.CodeNotFound, "lesson_progress.apply_update", "lesson not found", nil)
	}
	k := upKey{in.UserID, in.LessonID}
	before := s.progress[k]
	at := in.At
	if at.IsZero() {
		at = s.now
	}
	merged := mergeProgress(before, in.UserID, in.LessonID, in.Update, at)
	if merged.ID == uuid.Nil {
		merged.ID = uuid.New()
	}
	s.progress[k] = &merged
	return domainagg.LessonProgressResult{
		Progress:      cloneProgress(&merged),
		CourseID:      courseID,
		JustCompleted: merged.Completed && (before == nil || !before.Completed),
	}, nil
}

func (a memLessonAgg) AddTimeSpent(_ context.Context, in domainagg.AddTimeSpentInput) (domainagg.LessonProgressResult, error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("add_time"); err != nil {
		return domainagg.LessonProgressResult{}, domainagg.Wrap(domainagg.CodeInternal, "lesson_progress.add_time_spent", err)
	}
	if in.Minutes < 0 {
		return domainagg.LessonProgressResult{}, domainagg.NewError(domainagg.CodeValidation, "lesson_progress.add_time_spent", "minutes must be >= 0", nil)
	}
	courseID, ok := s.lessonCourse[in.LessonID]
	if !ok {
		return domainagg.LessonProgressResult{}, domainagg.NewError(domainagg.CodeNotFound, "lesson_progress.add_time_spent", "lesson not found", nil)
	}
	k := upKey{in.UserID, in.LessonID}
	at := in.At
	if at.IsZero() {
		at = s.now
	}
	next := addTime(s.progress[k], in.UserID, in.LessonID, in.Minutes, at)
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	s.progress[k] = &next
	return domainagg.LessonProgressResult{Progress: cloneProgress(&next), CourseID: courseID}, nil
}

// mergeProgress mirrors LessonProgressRepo.ApplyUpdate: completion is sticky and keeps its
// first completed_at, time spent never decreases.
func mergeProgress(cur *learning.LessonProgress, userID, lessonID uuid.UUID, upd learning.LessonProgressUpdate, now time.Time) learning.LessonProgress {
	out := learning.LessonProgress{UserID: userID, LessonID: lessonID, CreatedAt: now}
	if cur != nil {
		out = *cur
	}
	upd = upd.Normalize()
	if upd.TimeSpentMinutes != nil && *upd.TimeSpentMinutes > out.TimeSpentMinutes {
		out.TimeSpentMinutes = *upd.TimeSpentMinutes
	}
	if upd.ProgressPercentage != nil && !out.Completed {
		out.ProgressPercentage = *upd.ProgressPercentage
	}
	if upd.Completes() {
		out.Completed = true
		out.ProgressPercentage = learning.MaxProgressPercentage
		if out.CompletedAt == nil {
			at := now
			out.CompletedAt = &at
		}
	}
	out.UpdatedAt = now
	return out
}

func addTime(cur *learning.LessonProgress, userID, lessonID uuid.UUID, minutes int, now time.Time) learning.LessonProgress {
	out := learning.LessonProgress{UserID: userID, LessonID: lessonID, CreatedAt: now}
	if cur != nil {
		out = *cur
	}
	if minutes > 0 {
		out.TimeSpentMinutes += minutes
	}
	out.UpdatedAt = now
	return out
}

type memEnrollAgg struct{ s *memStore }

func (a memEnrollAgg) ensure(userID, courseID uuid.UUID, at time.Time) (*learning.Enrollment, bool) {
	k := upKey{userID, courseID}
	if e := a.s.enrollments[k]; e != nil {
		return e, false
	}
	e := &learning.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID, EnrolledAt: at, CreatedAt: at, UpdatedAt: at}
	a.s.enrollments[k] = e
	return e, true
}

func (a memEnrollAgg) Enroll(_ context.Context, in domainagg.EnrollInput) (domainagg.EnrollResult, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if in.UserID == uuid.Nil {
		return domainagg.EnrollResult{}, domainagg.ErrUnauthenticated
	}
	if a.s.trees[in.CourseID] == nil {
		return domainagg.EnrollResult{}, domainagg.NewError(domainagg.CodeNotFound, "enrollment.enroll", "course not found", nil)
	}
	e, created := a.ensure(in.UserID, in.CourseID, in.EnrolledAt)
	return domainagg.EnrollResult{Enrollment: cloneEnrollment(e), Created: created}, nil
}

func (a memEnrollAgg) SyncProgress(_ context.Context, in domainagg.SyncProgressInput) (domainagg.SyncProgressResult, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("sync"); err != nil {
		return domainagg.SyncProgressResult{}, domainagg.Wrap(domainagg.CodeInternal, "enrollment.sync_progress", err)
	}
	e, _ := a.ensure(in.UserID, in.CourseID, in.SyncedAt)
	if !e.Completed {
		e.Progress = learning.ClampPercentage(in.Progress)
		e.UpdatedAt = in.SyncedAt
	}
	return domainagg.SyncProgressResult{Enrollment: cloneEnrollment(e)}, nil
}

func (a memEnrollAgg) MarkCompleted(_ context.Context, in domainagg.MarkCompletedInput) (domainagg.MarkCompletedResult, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if err := a.s.failure("complete"); err != nil {
		return domainagg.MarkCompletedResult{}, domainagg.Wrap(domainagg.CodeInternal, "enrollment.mark_completed", err)
	}
	e, _ := a.ensure(in.UserID, in.CourseID, in.CompletedAt)
	if e.Completed {
		return domainagg.MarkCompletedResult{Enrollment: cloneEnrollment(e)}, nil
	}
	at := in.CompletedAt
	e.Completed = true
	e.Progress = learning.MaxProgressPercentage
	e.CompletedAt = &at
	e.UpdatedAt = at
	return domainagg.MarkCompletedResult{Enrollment: cloneEnrollment(e), JustCompleted: true}, nil
}

// ---- notifier ----

type recordingNotifier struct {
	mu     sync.Mutex
	events []ProgressEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type notifyFunc func(ctx context.Context, ev ProgressEvent) error

func (f notifyFunc) Notify(ctx context.Context, ev ProgressEvent) error { return f(ctx, ev) }

func (r *recordingNotifier) completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.JustCompleted {
			n++
		}
	}
	return n
}

// ---- harness ----

type harness struct {
	store    *memStore
	notifier *recordingNotifier
	courses  CourseProgressService
	tracker  ProgressTracker
	enroll   EnrollmentService
}

func newHarness() *harness {
	s := newMemStore()
	n := &recordingNotifier{}
	courses := NewCourseProgressService(CourseProgressDeps{
		Trees:       s,
		Progress:    s,
		Enrollments: s,
		EnrollAgg:   memEnrollAgg{s},
		Notifier:    n,
		Now:         s.clock,
	})
	tracker := NewProgressTracker(ProgressTrackerDeps{
		Progress:  s,
		LessonAgg: memLessonAgg{s},
		Courses:   courses,
		Now:       s.clock,
	})
	enroll := NewEnrollmentService(nil, s, memEnrollAgg{s}).(*enrollmentService)
	enroll.now = s.clock
	return &harness{
		store:    s,
		notifier: n,
		courses:  courses,
		tracker:  tracker,
		enroll:   enroll,
	}
}

func lessonAt(tree *learning.CourseTree, module, lesson int) uuid.UUID {
	return tree.Modules[module].Lessons[lesson].ID
}
