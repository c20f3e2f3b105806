package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillbharat-backend/internal/data/repos"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type Repos struct {
	User           repos.UserRepo
	Course         repos.CourseRepo
	Lesson         repos.LessonRepo
	LessonProgress repos.LessonProgressRepo
	Enrollment     repos.EnrollmentRepo
	Certificate    repos.CertificateRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Course:         repos.NewCourseRepo(db, log),
		Lesson:         repos.NewLessonRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),
		Enrollment:     repos.NewEnrollmentRepo(db, log),
		Certificate:    repos.NewCertificateRepo(db, log),
	}
}
