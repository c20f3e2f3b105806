package learning

import (
	"testing"

	"github.com/google/uuid"
)

func buildTree(lessonsPerModule ...int) (*CourseTree, [][]*Lesson) {
	course := &Course{ID: uuid.New(), Title: "course"}
	tree := &CourseTree{Course: course}
	var all [][]*Lesson
	for mi, n := range lessonsPerModule {
		mod := &CourseModule{ID: uuid.New(), CourseID: course.ID, Index: mi, Title: "m"}
		lessons := make([]*Lesson, 0, n)
		for li := 0; li < n; li++ {
			lessons = append(lessons, &Lesson{ID: uuid.New(), ModuleID: mod.ID, Index: li, DurationMinutes: 10})
		}
		tree.Modules = append(tree.Modules, ModuleTree{Module: mod, Lessons: lessons})
		all = append(all, lessons)
	}
	return tree, all
}

func completedRow(l *Lesson, minutes int) *LessonProgress {
	return &LessonProgress{LessonID: l.ID, Completed: true, ProgressPercentage: 100, TimeSpentMinutes: minutes}
}

func TestPercentBoundsAndRounding(t *testing.T) {
	for total := 0; total <= 250; total++ {
		for completed := 0; completed <= total; completed++ {
			pct := Percent(completed, total)
			if pct < 0 || pct > 100 {
				t.Fatalf("Percent(%d,%d) out of bounds: %d", completed, total, pct)
			}
			if total == 0 && pct != 0 {
				t.Fatalf("Percent(0,0): want=0 got=%d", pct)
			}
			if total > 0 && (pct == 100) != (completed == total) {
				t.Fatalf("Percent(%d,%d)=%d: 100 iff all completed", completed, total, pct)
			}
		}
	}
	cases := []struct{ c, t, want int }{
		{2, 5, 40}, {1, 3, 33}, {2, 3, 67}, {1, 8, 13}, {1, 200, 1}, {199, 200, 100 - 1},
	}
	for _, tc := range cases {
		if got := Percent(tc.c, tc.t); got != tc.want {
			t.Fatalf("Percent(%d,%d): want=%d got=%d", tc.c, tc.t, tc.want, got)
		}
	}
}

func TestComputeSnapshotTwoModules(t *testing.T) {
	tree, lessons := buildTree(3, 2)
	progress := IndexProgress([]*LessonProgress{
		completedRow(lessons[0][0], 12),
		completedRow(lessons[0][1], 8),
		{LessonID: lessons[1][0].ID, ProgressPercentage: 40, TimeSpentMinutes: 5},
	})

	snap := ComputeSnapshot(tree, progress)
	if snap.OverallProgress != 40 || snap.IsCompleted {
		t.Fatalf("overall: want=40/false got=%d/%v", snap.OverallProgress, snap.IsCompleted)
	}
	if snap.TotalLessons != 5 || snap.CompletedLessons != 2 {
		t.Fatalf("lessons: want=5/2 got=%d/%d", snap.TotalLessons, snap.CompletedLessons)
	}
	if snap.TotalDurationMinutes != 50 || snap.TimeSpentMinutes != 25 {
		t.Fatalf("minutes: want=50/25 got=%d/%d", snap.TotalDurationMinutes, snap.TimeSpentMinutes)
	}
	if len(snap.Modules) != 2 {
		t.Fatalf("modules: want=2 got=%d", len(snap.Modules))
	}
	if snap.Modules[0].ProgressPercentage != 67 || snap.Modules[1].ProgressPercentage != 0 {
		t.Fatalf("module pct: want=67,0 got=%d,%d", snap.Modules[0].ProgressPercentage, snap.Modules[1].ProgressPercentage)
	}
	if snap.Modules[0].ModuleID != tree.Modules[0].Module.ID {
		t.Fatalf("module order not preserved")
	}
}

func TestComputeSnapshotSingleLessonNoProgress(t *testing.T) {
	tree, _ := buildTree(1)
	snap := ComputeSnapshot(tree, nil)
	if snap.TotalLessons != 1 || snap.CompletedLessons != 0 || snap.OverallProgress != 0 || snap.IsCompleted {
		t.Fatalf("snapshot: got=%+v", snap)
	}
}

func TestComputeSnapshotSingleLessonCompleted(t *testing.T) {
	tree, lessons := buildTree(1)
	snap := ComputeSnapshot(tree, IndexProgress([]*LessonProgress{completedRow(lessons[0][0], 3)}))
	if snap.CompletedLessons != 1 || snap.OverallProgress != 100 || !snap.IsCompleted {
		t.Fatalf("snapshot: got=%+v", snap)
	}
}

func TestComputeSnapshotEmptyCourse(t *testing.T) {
	tree, _ := buildTree()
	snap := ComputeSnapshot(tree, nil)
	if snap.TotalLessons != 0 || snap.CompletedLessons != 0 || snap.OverallProgress != 0 || snap.IsCompleted {
		t.Fatalf("snapshot: got=%+v", snap)
	}
	if snap.Modules == nil || len(snap.Modules) != 0 {
		t.Fatalf("modules: want empty non-nil slice got=%v", snap.Modules)
	}
	if snap.CourseID != tree.Course.ID {
		t.Fatalf("course id: want=%s got=%s", tree.Course.ID, snap.CourseID)
	}
}

func TestComputeSnapshotEmptyModule(t *testing.T) {
	tree, lessons := buildTree(0, 1)
	snap := ComputeSnapshot(tree, IndexProgress([]*LessonProgress{completedRow(lessons[1][0], 1)}))
	if snap.Modules[0].ProgressPercentage != 0 || snap.Modules[0].TotalLessons != 0 {
		t.Fatalf("empty module: got=%+v", snap.Modules[0])
	}
	if !snap.IsCompleted || snap.OverallProgress != 100 {
		t.Fatalf("course: want completed got=%+v", snap)
	}
}

func TestComputeSnapshotNilTree(t *testing.T) {
	snap := ComputeSnapshot(nil, nil)
	if snap.IsCompleted || snap.OverallProgress != 0 {
		t.Fatalf("nil tree: got=%+v", snap)
	}
}

func TestComputeSnapshotIgnoresForeignProgress(t *testing.T) {
	tree, _ := buildTree(2)
	stray := &LessonProgress{LessonID: uuid.New(), Completed: true, ProgressPercentage: 100, TimeSpentMinutes: 99}
	snap := ComputeSnapshot(tree, IndexProgress([]*LessonProgress{stray}))
	if snap.CompletedLessons != 0 || snap.TimeSpentMinutes != 0 {
		t.Fatalf("stray progress counted: got=%+v", snap)
	}
}
