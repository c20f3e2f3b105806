package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
)

func TestUpdateProgressPercentageClampsAndCompletes(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 2)
	userID := uuid.New()
	lessonID := lessonAt(tree, 0, 0)
	ctx := context.Background()

	res, err := h.tracker.UpdateProgressPercentage(ctx, userID, lessonID, -20)
	if err != nil {
		t.Fatalf("UpdateProgressPercentage(-20): %v", err)
	}
	if res.Progress.ProgressPercentage != 0 || res.Progress.Completed {
		t.Fatalf("clamped low: want=0/false got=%d/%v", res.Progress.ProgressPercentage, res.Progress.Completed)
	}

	res, err = h.tracker.UpdateProgressPercentage(ctx, userID, lessonID, 150)
	if err != nil {
		t.Fatalf("UpdateProgressPercentage(150): %v", err)
	}
	if res.Progress.ProgressPercentage != 100 || !res.Progress.Completed {
		t.Fatalf("clamped high: want=100/true got=%d/%v", res.Progress.ProgressPercentage, res.Progress.Completed)
	}
	if res.Progress.CompletedAt == nil {
		t.Fatalf("completed_at: want set")
	}
	if res.Course == nil || res.Course.Snapshot.CompletedLessons != 1 || res.Course.Snapshot.OverallProgress != 50 {
		t.Fatalf("course snapshot: got=%+v", res.Course)
	}
}

func TestUpdateProgressCompletedImpliesFullPercentage(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 3)
	userID := uuid.New()
	ctx := context.Background()
	done := true
	pct := 40

	res, err := h.tracker.UpdateProgress(ctx, userID, lessonAt(tree, 0, 1), learning.LessonProgressUpdate{
		Completed:          &done,
		ProgressPercentage: &pct,
	})
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if !res.Progress.Completed || res.Progress.ProgressPercentage != 100 {
		t.Fatalf("completed record: want=true/100 got=%v/%d", res.Progress.Completed, res.Progress.ProgressPercentage)
	}
}

func TestUpdateProgressMergesFields(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 1)
	userID := uuid.New()
	lessonID := lessonAt(tree, 0, 0)
	ctx := context.Background()

	pct := 30
	if _, err := h.tracker.UpdateProgress(ctx, userID, lessonID, learning.LessonProgressUpdate{ProgressPercentage: &pct}); err != nil {
		t.Fatalf("UpdateProgress pct: %v", err)
	}
	minutes := 12
	res, err := h.tracker.UpdateProgress(ctx, userID, lessonID, learning.LessonProgressUpdate{TimeSpentMinutes: &minutes})
	if err != nil {
		t.Fatalf("UpdateProgress time: %v", err)
	}
	if res.Progress.ProgressPercentage != 30 || res.Progress.TimeSpentMinutes != 12 || res.Progress.Completed {
		t.Fatalf("merged record: got=%+v", res.Progress)
	}

	got, err := h.tracker.GetLessonProgress(ctx, userID, lessonID)
	if err != nil {
		t.Fatalf("GetLessonProgress: %v", err)
	}
	if got == nil || got.ProgressPercentage != 30 || got.TimeSpentMinutes != 12 {
		t.Fatalf("stored record: got=%+v", got)
	}
}

func TestMarkAsCompletedTwiceIsIdempotent(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 2)
	userID := uuid.New()
	lessonID := lessonAt(tree, 0, 0)
	ctx := context.Background()

	first, err := h.tracker.MarkAsCompleted(ctx, userID, lessonID)
	if err != nil {
		t.Fatalf("MarkAsCompleted #1: %v", err)
	}
	h.store.advance(time.Hour)
	second, err := h.tracker.MarkAsCompleted(ctx, userID, lessonID)
	if err != nil {
		t.Fatalf("MarkAsCompleted #2: %v", err)
	}
	a, b := first.Progress, second.Progress
	if a.Completed != b.Completed || a.ProgressPercentage != b.ProgressPercentage || a.TimeSpentMinutes != b.TimeSpentMinutes {
		t.Fatalf("fields changed: first=%+v second=%+v", a, b)
	}
	if a.CompletedAt == nil || b.CompletedAt == nil || !a.CompletedAt.Equal(*b.CompletedAt) {
		t.Fatalf("completed_at: want unchanged first=%v second=%v", a.CompletedAt, b.CompletedAt)
	}
}

func TestUpdateTimeSpentConcurrentIncrementsAreNotLost(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 1)
	userID := uuid.New()
	lessonID := lessonAt(tree, 0, 0)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.tracker.UpdateTimeSpent(ctx, userID, lessonID, 3); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("UpdateTimeSpent: %v", err)
	}
	got, err := h.tracker.GetLessonProgress(ctx, userID, lessonID)
	if err != nil {
		t.Fatalf("GetLessonProgress: %v", err)
	}
	if got.TimeSpentMinutes != workers*3 {
		t.Fatalf("time spent: want=%d got=%d", workers*3, got.TimeSpentMinutes)
	}
	if got.Completed {
		t.Fatalf("time alone must not complete the lesson")
	}
}

func TestTrackerUnauthenticatedIsNoop(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 1)
	lessonID := lessonAt(tree, 0, 0)
	ctx := context.Background()

	calls := []func() (*LessonUpdateResult, error){
		func() (*LessonUpdateResult, error) { return h.tracker.MarkAsCompleted(ctx, uuid.Nil, lessonID) },
		func() (*LessonUpdateResult, error) { return h.tracker.UpdateTimeSpent(ctx, uuid.Nil, lessonID, 5) },
		func() (*LessonUpdateResult, error) { return h.tracker.UpdateProgressPercentage(ctx, uuid.Nil, lessonID, 50) },
	}
	for i, call := range calls {
		res, err := call()
		if !errors.Is(err, domainagg.ErrUnauthenticated) {
			t.Fatalf("call %d: want ErrUnauthenticated got=%v", i, err)
		}
		if res != nil {
			t.Fatalf("call %d: want nil result got=%+v", i, res)
		}
	}
	if _, err := h.tracker.GetLessonProgress(ctx, uuid.Nil, lessonID); !errors.Is(err, domainagg.ErrUnauthenticated) {
		t.Fatalf("GetLessonProgress: want ErrUnauthenticated got=%v", err)
	}
	if len(h.store.progress) != 0 || len(h.store.enrollments) != 0 {
		t.Fatalf("store touched: progress=%d enrollments=%d", len(h.store.progress), len(h.store.enrollments))
	}
	if len(h.notifier.events) != 0 {
		t.Fatalf("notifications: want=0 got=%d", len(h.notifier.events))
	}
}

func TestTrackerPropagatesWriteFailure(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 1)
	userID := uuid.New()
	lessonID := lessonAt(tree, 0, 0)
	h.store.failWith("apply", errStoreDown)

	res, err := h.tracker.MarkAsCompleted(context.Background(), userID, lessonID)
	if err == nil || !errors.Is(err, errStoreDown) {
		t.Fatalf("want store error got=%v", err)
	}
	if res != nil {
		t.Fatalf("result: want nil got=%+v", res)
	}
	if len(h.store.enrollments) != 0 {
		t.Fatalf("enrollment advanced on failed write")
	}
}

func TestTrackerRecomputeFailureKeepsConfirmedLesson(t *testing.T) {
	h := newHarness()
	tree := h.store.addCourse("Go Basics", 1)
	userID := uuid.New()
	lessonID := lessonAt(tree, 0, 0)
	h.store.failWith("complete", errStoreDown)

	res, err := h.tracker.MarkAsCompleted(context.Background(), userID, lessonID)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("want completion error got=%v", err)
	}
	if res == nil || res.Progress == nil || !res.Progress.Completed {
		t.Fatalf("lesson record: want confirmed completed row got=%+v", res)
	}
	if res.Course != nil {
		t.Fatalf("course result: want nil got=%+v", res.Course)
	}
	if e := h.store.enrollments[upKey{userID, tree.Course.ID}]; e != nil && e.Completed {
		t.Fatalf("enrollment completed despite failure")
	}
}

func TestTrackerUnknownLesson(t *testing.T) {
	h := newHarness()
	_, err := h.tracker.MarkAsCompleted(context.Background(), uuid.New(), uuid.New())
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not_found got=%v", err)
	}
}
