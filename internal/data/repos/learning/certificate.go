package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type CertificateRepo interface {
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Certificate, error)
	// CreateIfAbsent keeps the first issued certificate for (user, course) and returns the stored row.
	CreateIfAbsent(dbc dbctx.Context, row *types.Certificate) (*types.Certificate, bool, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Certificate, error) {
	var row types.Certificate
	err := dbc.DB(r.db).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *certificateRepo) CreateIfAbsent(dbc dbctx.Context, row *types.Certificate) (*types.Certificate, bool, error) {
	if row == nil {
		return nil, false, nil
	}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	stored, err := r.GetByUserAndCourse(dbc, row.UserID, row.CourseID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected > 0, nil
}
