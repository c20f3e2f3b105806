package aggregates

import (
	"fmt"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
)

// CanTransition reports whether the enrollment lifecycle allows from -> to.
// Completed is terminal; self transitions are allowed so repeated writes stay idempotent.
func CanTransition(from, to learning.EnrollmentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case learning.EnrollmentNotEnrolled:
		return to == learning.EnrollmentInProgress
	case learning.EnrollmentInProgress:
		return to == learning.EnrollmentCompleted
	default:
		return false
	}
}

// RequireTransition converts a disallowed lifecycle step into a typed conflict error.
func RequireTransition(from, to learning.EnrollmentStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return ConflictError(fmt.Sprintf("enrollment transition %s -> %s not allowed", from, to))
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(message)
}
