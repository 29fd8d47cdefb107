package db

import (
	"context"
	"time"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type taskArchiveRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskArchiveRepository(db *gorm.DB, log *logger.Logger) ports.TaskArchiveRepository {
	return &taskArchiveRepository{
		db:  db,
		log: log,
	}
}

func (r *taskArchiveRepository) Create(ctx context.Context, record *domain.ArchivedTask) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		r.log.Errorw("archive_repo_create_failed", "task_id", record.TaskID, "error", err)
		return err
	}
	r.log.Debugw("archive_repo_create_ok", "task_id", record.TaskID, "status", record.Status)
	return nil
}

func (r *taskArchiveRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.ArchivedTask, error) {
	var record domain.ArchivedTask
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *taskArchiveRepository) GetAll(ctx context.Context, limit int) ([]domain.ArchivedTask, error) {
	var records []domain.ArchivedTask
	err := r.db.WithContext(ctx).
		Order("finished_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		r.log.Errorw("archive_repo_list_failed", "error", err)
		return nil, err
	}
	return records, nil
}

// CleanupOld removes archived records older than the specified duration
func (r *taskArchiveRepository) CleanupOld(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	if err := r.db.WithContext(ctx).
		Where("finished_at < ?", cutoff).
		Delete(&domain.ArchivedTask{}).Error; err != nil {
		r.log.Errorw("archive_repo_cleanup_failed", "error", err)
		return err
	}
	r.log.Infow("archive_repo_cleanup_ok")
	return nil
}
