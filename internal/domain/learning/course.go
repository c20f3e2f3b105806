package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	Description    string    `gorm:"column:description" json:"description"`
	InstructorName string    `gorm:"column:instructor_name" json:"instructor_name"`
	Level          string    `gorm:"column:level" json:"level"`

	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CourseModule struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Index    int       `gorm:"column:sort_index;not null" json:"index"`
	Title    string    `gorm:"column:title;not null" json:"title"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseModule) TableName() string { return "course_module" }

func (m *CourseModule) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Lesson struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"module_id"`
	Module          *CourseModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Index           int           `gorm:"column:sort_index;not null" json:"index"`
	Title           string        `gorm:"column:title;not null" json:"title"`
	DurationMinutes int           `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	VideoURL        string        `gorm:"column:video_url" json:"video_url,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
