package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinProgressPercentage = 0
	MaxProgressPercentage = 100
)

// LessonProgress is one user's state on one lesson.
// Completed implies ProgressPercentage == 100, and completion is sticky.
type LessonProgress struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_lesson" json:"user_id"`
	LessonID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_lesson;index" json:"lesson_id"`
	Completed          bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	ProgressPercentage int        `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	TimeSpentMinutes   int        `gorm:"column:time_spent_minutes;not null;default:0" json:"time_spent_minutes"`
	CompletedAt        *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// LessonProgressUpdate is a partial update; nil fields are left untouched.
type LessonProgressUpdate struct {
	ProgressPercentage *int  `json:"progress_percentage,omitempty"`
	TimeSpentMinutes   *int  `json:"time_spent_minutes,omitempty"`
	Completed          *bool `json:"completed,omitempty"`
}

// ClampPercentage bounds pct to [0,100].
func ClampPercentage(pct int) int {
	switch {
	case pct < MinProgressPercentage:
		return MinProgressPercentage
	case pct > MaxProgressPercentage:
		return MaxProgressPercentage
	default:
		return pct
	}
}

// Normalize clamps the percentage and couples it with the completed flag:
// reaching 100 completes the lesson, completing it forces 100.
func (u LessonProgressUpdate) Normalize() LessonProgressUpdate {
	out := u
	if u.ProgressPercentage != nil {
		pct := ClampPercentage(*u.ProgressPercentage)
		out.ProgressPercentage = &pct
		if pct == MaxProgressPercentage {
			done := true
			out.Completed = &done
		}
	}
	if out.Completed != nil && *out.Completed {
		full := MaxProgressPercentage
		out.ProgressPercentage = &full
	}
	if u.TimeSpentMinutes != nil && *u.TimeSpentMinutes < 0 {
		zero := 0
		out.TimeSpentMinutes = &zero
	}
	return out
}

// Completes reports whether the normalized update marks the lesson completed.
func (u LessonProgressUpdate) Completes() bool {
	return u.Completed != nil && *u.Completed
}

// IsEmpty reports whether the update carries no fields.
func (u LessonProgressUpdate) IsEmpty() bool {
	return u.ProgressPercentage == nil && u.TimeSpentMinutes == nil && u.Completed == nil
}
