package db

import (
	"github.com/netfleet/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Device{},
		&domain.ArchivedTask{},
	)
	if err != nil {
		return err
	}

	return createCustomIndexes(db)
}

func createCustomIndexes(db *gorm.DB) error {
	// Archive queries filter on status + finish time for retention sweeps
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_archived_tasks_status_finished
		ON archived_tasks (status, finished_at)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return err
	}

	return nil
}
