package db

import (
	"context"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type deviceRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeviceRepository(db *gorm.DB, log *logger.Logger) ports.DeviceRepository {
	return &deviceRepository{
		db:  db,
		log: log,
	}
}

func (r *deviceRepository) Create(ctx context.Context, device *domain.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		r.log.Errorw("device_repo_create_failed", "ip", device.IP, "error", err)
		return err
	}
	r.log.Infow("device_repo_create_ok", "id", device.ID, "ip", device.IP)
	return nil
}

func (r *deviceRepository) GetByID(ctx context.Context, id uint) (*domain.Device, error) {
	var device domain.Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) GetByIP(ctx context.Context, ip string) (*domain.Device, error) {
	var device domain.Device
	if err := r.db.WithContext(ctx).Where("ip = ?", ip).First(&device).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepository) GetAll(ctx context.Context) ([]domain.Device, error) {
	var devices []domain.Device
	err := r.db.WithContext(ctx).
		Order("name asc").
		Find(&devices).Error
	if err != nil {
		r.log.Errorw("device_repo_list_failed", "error", err)
		return nil, err
	}
	return devices, nil
}

func (r *deviceRepository) Update(ctx context.Context, device *domain.Device) error {
	if err := r.db.WithContext(ctx).Save(device).Error; err != nil {
		r.log.Errorw("device_repo_update_failed", "id", device.ID, "error", err)
		return err
	}
	return nil
}

func (r *deviceRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Device{}, id).Error; err != nil {
		r.log.Errorw("device_repo_delete_failed", "id", id, "error", err)
		return err
	}
	return nil
}
