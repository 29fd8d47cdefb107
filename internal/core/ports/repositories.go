package ports

import (
	"context"
	"time"

	"github.com/netfleet/backend/internal/domain"
)

type DeviceRepository interface {
	Create(ctx context.Context, device *domain.Device) error
	GetByID(ctx context.Context, id uint) (*domain.Device, error)
	GetByIP(ctx context.Context, ip string) (*domain.Device, error)
	GetAll(ctx context.Context) ([]domain.Device, error)
	Update(ctx context.Context, device *domain.Device) error
	Delete(ctx context.Context, id uint) error
}

type TaskArchiveRepository interface {
	Create(ctx context.Context, record *domain.ArchivedTask) error
	GetByTaskID(ctx context.Context, taskID string) (*domain.ArchivedTask, error)
	GetAll(ctx context.Context, limit int) ([]domain.ArchivedTask, error)
	CleanupOld(ctx context.Context, olderThan time.Duration) error
}
