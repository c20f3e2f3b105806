package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/skillbharat-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	return AutoMigrateAll(s.db)
}
