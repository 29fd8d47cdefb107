package ports

import (
	"context"

	"github.com/netfleet/backend/internal/domain"
)

type SubmitInput struct {
	OperationKind string
	Targets       []string
	Parameters    domain.JSONB
	Owner         string
}

// TaskRunner is the submission/query/cancel surface of the execution core.
// Submit never blocks on execution; it returns once the task is admitted.
type TaskRunner interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.Task, error)
	Cancel(id string) error
	Get(id string) (*domain.Task, error)
	List(filter domain.TaskFilter) []*domain.Task
}

// Subscription is one observer's view of a task's event stream. Events() is
// closed after the terminal event has been delivered, or when Close is called.
type Subscription interface {
	Events() <-chan domain.Event
	Close()
}

// Broadcaster fans out events from running operations to any number of
// observers. Publish must never block the producer.
type Broadcaster interface {
	Publish(ev domain.Event)
	Subscribe(taskID string) Subscription
}

type CreateDeviceInput struct {
	Name       string
	IP         string
	SSHPort    int
	Platform   string
	Username   string
	Password   string
	PrivateKey string
}

type UpdateDeviceInput struct {
	Name       *string
	SSHPort    *int
	Platform   *string
	Username   *string
	Password   *string
	PrivateKey *string
	IsActive   *bool
}

type InventoryService interface {
	CreateDevice(ctx context.Context, input CreateDeviceInput) (*domain.Device, error)
	GetDevices(ctx context.Context) ([]domain.Device, error)
	GetDeviceByID(ctx context.Context, id uint) (*domain.Device, error)
	UpdateDevice(ctx context.Context, id uint, input UpdateDeviceInput) (*domain.Device, error)
	DeleteDevice(ctx context.Context, id uint) error
	EndpointResolver
}
