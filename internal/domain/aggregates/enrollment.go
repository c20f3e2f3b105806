package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
)

// EnrollmentAggregate owns the NotEnrolled -> InProgress -> Completed lifecycle.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type EnrollmentAggregate interface {
	// Enroll creates the enrollment when absent. Repeat calls return the existing row.
	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)

	// SyncProgress writes the cached overall progress. Completed enrollments are left untouched.
	SyncProgress(ctx context.Context, in SyncProgressInput) (SyncProgressResult, error)

	// MarkCompleted transitions to Completed. Only the first call sets completed_at.
	MarkCompleted(ctx context.Context, in MarkCompletedInput) (MarkCompletedResult, error)
}

type EnrollInput struct {
	UserID     uuid.UUID
	CourseID   uuid.UUID
	EnrolledAt time.Time
}

type EnrollResult struct {
	Enrollment *learning.Enrollment
	Created    bool
}

type SyncProgressInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	Progress int
	SyncedAt time.Time
}

type SyncProgressResult struct {
	Enrollment *learning.Enrollment
}

type MarkCompletedInput struct {
	UserID      uuid.UUID
	CourseID    uuid.UUID
	CompletedAt time.Time
}

type MarkCompletedResult struct {
	Enrollment    *learning.Enrollment
	JustCompleted bool
}
