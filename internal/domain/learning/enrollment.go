package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentNotEnrolled EnrollmentStatus = "not_enrolled"
	EnrollmentInProgress  EnrollmentStatus = "in_progress"
	EnrollmentCompleted   EnrollmentStatus = "completed"
)

// Enrollment caches the last computed overall progress for (user, course).
// Once Completed it never changes again.
type Enrollment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_course;index" json:"course_id"`
	Course      *Course    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Progress    int        `gorm:"column:progress;not null;default:0" json:"progress"`
	Completed   bool       `gorm:"column:completed;not null;default:false;index" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	EnrolledAt  time.Time  `gorm:"column:enrolled_at;not null" json:"enrolled_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Status derives the lifecycle state; a nil enrollment is NotEnrolled.
func (e *Enrollment) Status() EnrollmentStatus {
	switch {
	case e == nil || e.ID == uuid.Nil:
		return EnrollmentNotEnrolled
	case e.Completed:
		return EnrollmentCompleted
	default:
		return EnrollmentInProgress
	}
}

// Certificate is the issued certificate record for a completed enrollment.
type Certificate struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course" json:"course_id"`
	CertificateNumber string         `gorm:"column:certificate_number;not null;uniqueIndex" json:"certificate_number"`
	Template          string         `gorm:"column:template;not null" json:"template"`
	Data              datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	IssuedAt          time.Time      `gorm:"column:issued_at;not null" json:"issued_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Certificate) TableName() string { return "certificate" }

func (c *Certificate) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
