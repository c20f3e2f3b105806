package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillbharat-backend/internal/data/repos/learning"
	"github.com/yungbote/skillbharat-backend/internal/data/repos/user"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type LessonProgressRepo = learning.LessonProgressRepo
type EnrollmentRepo = learning.EnrollmentRepo
type CertificateRepo = learning.CertificateRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return learning.NewLessonProgressRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}
func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return learning.NewCertificateRepo(db, baseLog)
}
