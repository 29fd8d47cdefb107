package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/netfleet/backend/internal/infrastructure/logger"
	"github.com/netfleet/backend/pkg/utils/crypto"
)

type InventoryServiceConfig struct {
	Repository    ports.DeviceRepository
	Logger        *logger.Logger
	EncryptionKey string
}

type inventoryService struct {
	repo          ports.DeviceRepository
	log           *logger.Logger
	encryptionKey string
}

// authDataPayload is the credential blob stored encrypted on each device row.
type authDataPayload struct {
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
}

func NewInventoryService(cfg InventoryServiceConfig) ports.InventoryService {
	return &inventoryService{
		repo:          cfg.Repository,
		log:           cfg.Logger,
		encryptionKey: cfg.EncryptionKey,
	}
}

func (s *inventoryService) CreateDevice(ctx context.Context, input ports.CreateDeviceInput) (*domain.Device, error) {
	if input.Name == "" || input.IP == "" {
		return nil, ErrDeviceInvalidInput
	}
	if net.ParseIP(input.IP) == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", ErrDeviceInvalidInput, input.IP)
	}
	if existing, err := s.repo.GetByIP(ctx, input.IP); err == nil && existing != nil {
		return nil, ErrDeviceAlreadyExists
	}

	authData, err := s.encryptAuth(input.Password, input.PrivateKey)
	if err != nil {
		return nil, err
	}

	sshPort := input.SSHPort
	if sshPort == 0 {
		sshPort = 22
	}
	device := &domain.Device{
		Name:     input.Name,
		IP:       input.IP,
		SSHPort:  sshPort,
		Platform: input.Platform,
		Username: input.Username,
		AuthData: authData,
		Status:   domain.DeviceStatusUnknown,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, device); err != nil {
		s.log.Errorw("device_create_failed", "ip", input.IP, "error", err)
		return nil, err
	}
	s.log.Infow("device_created", "id", device.ID, "ip", device.IP, "name", device.Name)
	return device, nil
}

func (s *inventoryService) GetDevices(ctx context.Context) ([]domain.Device, error) {
	return s.repo.GetAll(ctx)
}

func (s *inventoryService) GetDeviceByID(ctx context.Context, id uint) (*domain.Device, error) {
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

func (s *inventoryService) UpdateDevice(ctx context.Context, id uint, input ports.UpdateDeviceInput) (*domain.Device, error) {
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrDeviceNotFound
	}

	if input.Name != nil {
		device.Name = *input.Name
	}
	if input.SSHPort != nil {
		device.SSHPort = *input.SSHPort
	}
	if input.Platform != nil {
		device.Platform = *input.Platform
	}
	if input.Username != nil {
		device.Username = *input.Username
	}
	if input.IsActive != nil {
		device.IsActive = *input.IsActive
	}
	if input.Password != nil || input.PrivateKey != nil {
		password, privateKey, err := s.decryptAuth(device.AuthData)
		if err != nil {
			password, privateKey = "", ""
		}
		if input.Password != nil {
			password = *input.Password
		}
		if input.PrivateKey != nil {
			privateKey = *input.PrivateKey
		}
		authData, err := s.encryptAuth(password, privateKey)
		if err != nil {
			return nil, err
		}
		device.AuthData = authData
	}

	if err := s.repo.Update(ctx, device); err != nil {
		s.log.Errorw("device_update_failed", "id", id, "error", err)
		return nil, err
	}
	s.log.Infow("device_updated", "id", id)
	return device, nil
}

func (s *inventoryService) DeleteDevice(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return ErrDeviceNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Errorw("device_delete_failed", "id", id, "error", err)
		return err
	}
	s.log.Infow("device_deleted", "id", id)
	return nil
}

// ResolveEndpoint maps a task target (device IP) to connection material.
// Inactive devices are not resolvable, so a disabled device can never be
// touched by a newly submitted task.
func (s *inventoryService) ResolveEndpoint(ctx context.Context, target string) (domain.Endpoint, error) {
	device, err := s.repo.GetByIP(ctx, target)
	if err != nil || device == nil {
		return domain.Endpoint{}, fmt.Errorf("%w: %q", ErrTargetNotResolvable, target)
	}
	if !device.IsActive {
		return domain.Endpoint{}, fmt.Errorf("%w: %q is inactive", ErrTargetNotResolvable, target)
	}

	password, privateKey, err := s.decryptAuth(device.AuthData)
	if err != nil {
		return domain.Endpoint{}, fmt.Errorf("failed to decrypt credentials for %q: %w", target, err)
	}

	return domain.Endpoint{
		Target:     target,
		Host:       device.IP,
		Port:       device.SSHPort,
		User:       device.Username,
		Password:   password,
		PrivateKey: privateKey,
	}, nil
}

func (s *inventoryService) encryptAuth(password, privateKey string) (string, error) {
	payload, err := json.Marshal(authDataPayload{Password: password, PrivateKey: privateKey})
	if err != nil {
		return "", err
	}
	return crypto.Encrypt(string(payload), s.encryptionKey)
}

func (s *inventoryService) decryptAuth(authData string) (password, privateKey string, err error) {
	if authData == "" {
		return "", "", nil
	}
	plain, err := crypto.Decrypt(authData, s.encryptionKey)
	if err != nil {
		return "", "", err
	}
	var payload authDataPayload
	if err := json.Unmarshal([]byte(plain), &payload); err != nil {
		return "", "", err
	}
	return payload.Password, payload.PrivateKey, nil
}
