package learning

import (
	"github.com/google/uuid"
)

// ModuleTree is a module with its lessons in authored order.
type ModuleTree struct {
	Module  *CourseModule `json:"module"`
	Lessons []*Lesson     `json:"lessons"`
}

// DurationMinutes is the sum of the module's lesson durations.
func (m ModuleTree) DurationMinutes() int {
	total := 0
	for _, l := range m.Lessons {
		if l != nil && l.DurationMinutes > 0 {
			total += l.DurationMinutes
		}
	}
	return total
}

// CourseTree is a course with its modules in authored order.
type CourseTree struct {
	Course  *Course      `json:"course"`
	Modules []ModuleTree `json:"modules"`
}

// LessonIDs lists every lesson id in tree order.
func (t *CourseTree) LessonIDs() []uuid.UUID {
	if t == nil {
		return nil
	}
	var ids []uuid.UUID
	for _, m := range t.Modules {
		for _, l := range m.Lessons {
			if l != nil {
				ids = append(ids, l.ID)
			}
		}
	}
	return ids
}

type ModuleProgress struct {
	ModuleID           uuid.UUID `json:"module_id"`
	Title              string    `json:"title"`
	TotalLessons       int       `json:"total_lessons"`
	CompletedLessons   int       `json:"completed_lessons"`
	ProgressPercentage int       `json:"progress_percentage"`
	DurationMinutes    int       `json:"duration_minutes"`
	TimeSpentMinutes   int       `json:"time_spent_minutes"`
}

type CourseProgressSnapshot struct {
	CourseID             uuid.UUID        `json:"course_id"`
	TotalLessons         int              `json:"total_lessons"`
	CompletedLessons     int              `json:"completed_lessons"`
	TotalDurationMinutes int              `json:"total_duration_minutes"`
	TimeSpentMinutes     int              `json:"time_spent_minutes"`
	OverallProgress      int              `json:"overall_progress"`
	IsCompleted          bool             `json:"is_completed"`
	Modules              []ModuleProgress `json:"modules"`
}

// Percent is round-half-up of 100*completed/total, 0 for an empty unit.
// It only reaches 100 when every lesson is completed.
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return MaxProgressPercentage
	}
	pct := (200*completed + total) / (2 * total)
	if pct >= MaxProgressPercentage {
		return MaxProgressPercentage - 1
	}
	return pct
}

// ComputeSnapshot rolls lesson progress up into modules and the course.
// Lessons missing from progress count as not completed with no time spent.
func ComputeSnapshot(tree *CourseTree, progress map[uuid.UUID]*LessonProgress) CourseProgressSnapshot {
	snap := CourseProgressSnapshot{Modules: []ModuleProgress{}}
	if tree == nil {
		return snap
	}
	if tree.Course != nil {
		snap.CourseID = tree.Course.ID
	}
	for _, m := range tree.Modules {
		mp := ModuleProgress{DurationMinutes: m.DurationMinutes()}
		if m.Module != nil {
			mp.ModuleID = m.Module.ID
			mp.Title = m.Module.Title
		}
		for _, l := range m.Lessons {
			if l == nil {
				continue
			}
			mp.TotalLessons++
			if p := progress[l.ID]; p != nil {
				if p.Completed {
					mp.CompletedLessons++
				}
				mp.TimeSpentMinutes += p.TimeSpentMinutes
			}
		}
		mp.ProgressPercentage = Percent(mp.CompletedLessons, mp.TotalLessons)

		snap.TotalLessons += mp.TotalLessons
		snap.CompletedLessons += mp.CompletedLessons
		snap.TotalDurationMinutes += mp.DurationMinutes
		snap.TimeSpentMinutes += mp.TimeSpentMinutes
		snap.Modules = append(snap.Modules, mp)
	}
	snap.OverallProgress = Percent(snap.CompletedLessons, snap.TotalLessons)
	snap.IsCompleted = snap.OverallProgress == MaxProgressPercentage
	return snap
}

// IndexProgress keys progress rows by lesson id.
func IndexProgress(rows []*LessonProgress) map[uuid.UUID]*LessonProgress {
	out := make(map[uuid.UUID]*LessonProgress, len(rows))
	for _, r := range rows {
		if r != nil {
			out[r.LessonID] = r
		}
	}
	return out
}
