package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
)

// LessonProgressAggregate owns writes to one user's progress on one lesson.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeRetryable, CodeInternal.
type LessonProgressAggregate interface {
	// ApplyUpdate merges the update onto the record, creating it when absent.
	ApplyUpdate(ctx context.Context, in ApplyLessonUpdateInput) (LessonProgressResult, error)

	// AddTimeSpent increments time spent at the store.
	AddTimeSpent(ctx context.Context, in AddTimeSpentInput) (LessonProgressResult, error)
}

type ApplyLessonUpdateInput struct {
	UserID   uuid.UUID
	LessonID uuid.UUID
	Update   learning.LessonProgressUpdate
	At       time.Time
}

type AddTimeSpentInput struct {
	UserID   uuid.UUID
	LessonID uuid.UUID
	Minutes  int
	At       time.Time
}

type LessonProgressResult struct {
	Progress *learning.LessonProgress
	// CourseID is the course owning the lesson, for the follow-up recompute.
	CourseID uuid.UUID
	// JustCompleted is true when this write flipped the lesson to completed.
	JustCompleted bool
}
