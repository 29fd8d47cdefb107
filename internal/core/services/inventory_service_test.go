package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDeviceRepo is an in-memory DeviceRepository for service tests.
type memDeviceRepo struct {
	mu      sync.Mutex
	nextID  uint
	devices map[uint]*domain.Device
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{nextID: 1, devices: make(map[uint]*domain.Device)}
}

func (r *memDeviceRepo) Create(_ context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device.ID = r.nextID
	r.nextID++
	cp := *device
	r.devices[device.ID] = &cp
	return nil
}

func (r *memDeviceRepo) GetByID(_ context.Context, id uint) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("record not found")
	}
	cp := *device
	return &cp, nil
}

func (r *memDeviceRepo) GetByIP(_ context.Context, ip string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, device := range r.devices {
		if device.IP == ip {
			cp := *device
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("record not found")
}

func (r *memDeviceRepo) GetAll(_ context.Context) ([]domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Device, 0, len(r.devices))
	for _, device := range r.devices {
		out = append(out, *device)
	}
	return out, nil
}

func (r *memDeviceRepo) Update(_ context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.ID]; !ok {
		return fmt.Errorf("record not found")
	}
	cp := *device
	r.devices[device.ID] = &cp
	return nil
}

func (r *memDeviceRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, id)
	return nil
}

func newInventory(t *testing.T) (ports.InventoryService, *memDeviceRepo) {
	t.Helper()
	repo := newMemDeviceRepo()
	svc := NewInventoryService(InventoryServiceConfig{
		Repository:    repo,
		Logger:        testLogger(t),
		EncryptionKey: "test-encryption-key",
	})
	return svc, repo
}

func TestInventoryCreateDevice(t *testing.T) {
	svc, _ := newInventory(t)

	device, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name:     "edge-1",
		IP:       "10.0.0.1",
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, 22, device.SSHPort, "ssh port defaults to 22")
	assert.True(t, device.IsActive)
	assert.NotEmpty(t, device.AuthData)
	assert.NotContains(t, device.AuthData, "secret", "credentials are stored encrypted")
}

func TestInventoryCreateDeviceValidation(t *testing.T) {
	svc, _ := newInventory(t)

	_, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		IP: "10.0.0.1", Username: "admin",
	})
	assert.ErrorIs(t, err, ErrDeviceInvalidInput)

	_, err = svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name: "edge-1", IP: "not-an-ip", Username: "admin",
	})
	assert.ErrorIs(t, err, ErrDeviceInvalidInput)
}

func TestInventoryRejectsDuplicateIP(t *testing.T) {
	svc, _ := newInventory(t)

	_, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name: "edge-1", IP: "10.0.0.1", Username: "admin", Password: "x",
	})
	require.NoError(t, err)

	_, err = svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name: "edge-2", IP: "10.0.0.1", Username: "admin", Password: "x",
	})
	assert.ErrorIs(t, err, ErrDeviceAlreadyExists)
}

func TestInventoryResolveEndpoint(t *testing.T) {
	svc, _ := newInventory(t)

	_, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name:     "edge-1",
		IP:       "10.0.0.1",
		SSHPort:  2222,
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)

	endpoint, err := svc.ResolveEndpoint(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", endpoint.Host)
	assert.Equal(t, 2222, endpoint.Port)
	assert.Equal(t, "admin", endpoint.User)
	assert.Equal(t, "secret", endpoint.Password, "credentials round-trip through encryption")

	_, err = svc.ResolveEndpoint(context.Background(), "10.9.9.9")
	assert.ErrorIs(t, err, ErrTargetNotResolvable)
}

func TestInventoryInactiveDeviceNotResolvable(t *testing.T) {
	svc, _ := newInventory(t)

	device, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name: "edge-1", IP: "10.0.0.1", Username: "admin", Password: "x",
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateDevice(context.Background(), device.ID, ports.UpdateDeviceInput{
		IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = svc.ResolveEndpoint(context.Background(), "10.0.0.1")
	assert.ErrorIs(t, err, ErrTargetNotResolvable)
}

func TestInventoryUpdateReencryptsCredentials(t *testing.T) {
	svc, _ := newInventory(t)

	device, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name: "edge-1", IP: "10.0.0.1", Username: "admin", Password: "old",
	})
	require.NoError(t, err)

	newPassword := "new"
	_, err = svc.UpdateDevice(context.Background(), device.ID, ports.UpdateDeviceInput{
		Password: &newPassword,
	})
	require.NoError(t, err)

	endpoint, err := svc.ResolveEndpoint(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "new", endpoint.Password)
}

func TestInventoryDeleteDevice(t *testing.T) {
	svc, _ := newInventory(t)

	device, err := svc.CreateDevice(context.Background(), ports.CreateDeviceInput{
		Name: "edge-1", IP: "10.0.0.1", Username: "admin", Password: "x",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDevice(context.Background(), device.ID))
	assert.ErrorIs(t, svc.DeleteDevice(context.Background(), device.ID), ErrDeviceNotFound)

	_, err = svc.GetDeviceByID(context.Background(), device.ID)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
