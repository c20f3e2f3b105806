package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "Asha",
		LastName:  "Verma",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:             uuid.New(),
		Title:          title,
		InstructorName: "R. Iyer",
		Level:          "beginner",
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedCourseModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, index int) *types.CourseModule {
	tb.Helper()
	m := &types.CourseModule{
		ID:        uuid.New(),
		CourseID:  courseID,
		Index:     index,
		Title:     fmt.Sprintf("module %d", index),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed course module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, index, durationMinutes int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:              uuid.New(),
		ModuleID:        moduleID,
		Index:           index,
		Title:           fmt.Sprintf("lesson %d", index),
		DurationMinutes: durationMinutes,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedCourseTree creates a course whose modules hold lessonsPerModule[i] lessons of 10 minutes each.
func SeedCourseTree(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonsPerModule ...int) (*types.Course, []*types.CourseModule, [][]*types.Lesson) {
	tb.Helper()
	course := SeedCourse(tb, ctx, tx, "course")
	modules := make([]*types.CourseModule, 0, len(lessonsPerModule))
	lessons := make([][]*types.Lesson, 0, len(lessonsPerModule))
	for i, n := range lessonsPerModule {
		m := SeedCourseModule(tb, ctx, tx, course.ID, i)
		modules = append(modules, m)
		ls := make([]*types.Lesson, 0, n)
		for j := 0; j < n; j++ {
			ls = append(ls, SeedLesson(tb, ctx, tx, m.ID, j, 10))
		}
		lessons = append(lessons, ls)
	}
	return course, modules, lessons
}

func PtrInt(v int) *int { return &v }

func PtrBool(v bool) *bool { return &v }
