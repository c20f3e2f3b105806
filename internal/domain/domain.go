package domain

import (
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/domain/user"
)

type User = user.User

type Course = learning.Course
type CourseModule = learning.CourseModule
type Lesson = learning.Lesson
type LessonProgress = learning.LessonProgress
type LessonProgressUpdate = learning.LessonProgressUpdate
type Enrollment = learning.Enrollment
type EnrollmentStatus = learning.EnrollmentStatus
type Certificate = learning.Certificate

type CourseTree = learning.CourseTree
type ModuleTree = learning.ModuleTree
type ModuleProgress = learning.ModuleProgress
type CourseProgressSnapshot = learning.CourseProgressSnapshot

const (
	EnrollmentNotEnrolled = learning.EnrollmentNotEnrolled
	EnrollmentInProgress  = learning.EnrollmentInProgress
	EnrollmentCompleted   = learning.EnrollmentCompleted
)

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Course{},
		&CourseModule{},
		&Lesson{},
		&LessonProgress{},
		&Enrollment{},
		&Certificate{},
	}
}
