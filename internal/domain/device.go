package domain

import (
	"time"

	"gorm.io/gorm"
)

type DeviceStatus string

const (
	DeviceStatusUnknown     DeviceStatus = "unknown"
	DeviceStatusReachable   DeviceStatus = "reachable"
	DeviceStatusUnreachable DeviceStatus = "unreachable"
)

// Device is an inventory entry for one network device. Targets submitted with
// a task are resolved against the inventory by IP.
type Device struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string       `gorm:"size:255;not null" json:"name"`
	IP       string       `gorm:"size:45;uniqueIndex;not null" json:"ip"`
	SSHPort  int          `gorm:"default:22" json:"ssh_port"`
	Platform string       `gorm:"size:50" json:"platform"`
	Username string       `gorm:"size:100" json:"username"`
	AuthData string       `gorm:"type:text" json:"-"`
	Status   DeviceStatus `gorm:"size:20;not null;default:'unknown'" json:"status"`
	Facts    JSONB        `gorm:"type:jsonb" json:"facts,omitempty"`
	IsActive bool         `gorm:"default:true" json:"is_active"`
}

// Endpoint is the resolved connection material for one target. Credentials are
// decrypted just before a session is opened and never serialized.
type Endpoint struct {
	Target     string
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey string
}
