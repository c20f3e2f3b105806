package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type CourseRepo interface {
	GetByID(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
	// GetTree loads the course with ordered modules and ordered lessons; nil when the course is absent.
	GetTree(dbc dbctx.Context, courseID uuid.UUID) (*types.CourseTree, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetByID(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	if courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Course
	err := dbc.DB(r.db).Where("id = ?", courseID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *courseRepo) GetTree(dbc dbctx.Context, courseID uuid.UUID) (*types.CourseTree, error) {
	course, err := r.GetByID(dbc, courseID)
	if err != nil || course == nil {
		return nil, err
	}

	var modules []*types.CourseModule
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("sort_index ASC, created_at ASC").
		Find(&modules).Error; err != nil {
		return nil, err
	}

	tree := &types.CourseTree{Course: course, Modules: make([]types.ModuleTree, 0, len(modules))}
	if len(modules) == 0 {
		return tree, nil
	}

	moduleIDs := make([]uuid.UUID, 0, len(modules))
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
	}
	var lessons []*types.Lesson
	if err := dbc.DB(r.db).
		Where("module_id IN ?", moduleIDs).
		Order("sort_index ASC, created_at ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	byModule := make(map[uuid.UUID][]*types.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	for _, m := range modules {
		ls := byModule[m.ID]
		if ls == nil {
			ls = []*types.Lesson{}
		}
		tree.Modules = append(tree.Modules, types.ModuleTree{Module: m, Lessons: ls})
	}
	return tree, nil
}
