package learning

import (
	"testing"

	"github.com/google/uuid"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestNormalizeCouplesPercentageAndCompleted(t *testing.T) {
	u := LessonProgressUpdate{ProgressPercentage: intPtr(140)}.Normalize()
	if *u.ProgressPercentage != 100 || !u.Completes() {
		t.Fatalf("clamp to 100 should complete: got pct=%d completed=%v", *u.ProgressPercentage, u.Completed)
	}
	u = LessonProgressUpdate{ProgressPercentage: intPtr(-5)}.Normalize()
	if *u.ProgressPercentage != 0 || u.Completes() {
		t.Fatalf("clamp to 0: got pct=%d completed=%v", *u.ProgressPercentage, u.Completed)
	}
	u = LessonProgressUpdate{Completed: boolPtr(true), ProgressPercentage: intPtr(10)}.Normalize()
	if *u.ProgressPercentage != 100 {
		t.Fatalf("completed forces 100: got=%d", *u.ProgressPercentage)
	}
}

func TestEnrollmentStatus(t *testing.T) {
	var none *Enrollment
	if none.Status() != EnrollmentNotEnrolled {
		t.Fatalf("nil: want=%s got=%s", EnrollmentNotEnrolled, none.Status())
	}
	e := &Enrollment{ID: uuid.New(), Progress: 40}
	if e.Status() != EnrollmentInProgress {
		t.Fatalf("in progress: got=%s", e.Status())
	}
	e.Completed = true
	if e.Status() != EnrollmentCompleted {
		t.Fatalf("completed: got=%s", e.Status())
	}
}
