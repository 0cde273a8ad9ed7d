package port

import (
	"context"
	"time"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
)

// BusinessRepository persists businesses.
type BusinessRepository interface {
	Create(ctx context.Context, business domain.Business) error
	GetByID(ctx context.Context, id string) (*domain.Business, error)
	List(ctx context.Context) ([]domain.Business, error)
	Update(ctx context.Context, business domain.Business) error
	SoftDelete(ctx context.Context, id string) error
}

// BranchRepository persists branches.
type BranchRepository interface {
	Create(ctx context.Context, branch domain.Branch) error
	GetByID(ctx context.Context, id string) (*domain.Branch, error)
	ListByBusiness(ctx context.Context, businessID string) ([]domain.Branch, error)
	Update(ctx context.Context, branch domain.Branch) error
	SoftDelete(ctx context.Context, id string) error
}

// MachineRepository persists machines.
type MachineRepository interface {
	Create(ctx context.Context, machine domain.Machine) error
	GetByID(ctx context.Context, id string) (*domain.Machine, error)
	ListByBranch(ctx context.Context, branchID string) ([]domain.Machine, error)
	Update(ctx context.Context, machine domain.Machine) error
	SoftDelete(ctx context.Context, id string) error
}

// DeviceTypeRepository persists the device type catalog.
type DeviceTypeRepository interface {
	Create(ctx context.Context, deviceType domain.DeviceType) error
	GetByID(ctx context.Context, id string) (*domain.DeviceType, error)
	List(ctx context.Context) ([]domain.DeviceType, error)
	Update(ctx context.Context, deviceType domain.DeviceType) error
	SoftDelete(ctx context.Context, id string) error
}

// SensorTypeRepository persists the sensor type catalog.
type SensorTypeRepository interface {
	Create(ctx context.Context, sensorType domain.SensorType) error
	GetByID(ctx context.Context, id string) (*domain.SensorType, error)
	List(ctx context.Context) ([]domain.SensorType, error)
	Update(ctx context.Context, sensorType domain.SensorType) error
	SoftDelete(ctx context.Context, id string) error
}

// DeviceRepository persists devices and their reported state.
type DeviceRepository interface {
	Create(ctx context.Context, device domain.Device) error
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	ListByMachine(ctx context.Context, machineID string) ([]domain.Device, error)
	Update(ctx context.Context, device domain.Device) error
	UpdateState(ctx context.Context, id, state string, at time.Time) error
	SoftDelete(ctx context.Context, id string) error
}

// SensorRepository persists sensors.
type SensorRepository interface {
	Create(ctx context.Context, sensor domain.Sensor) error
	GetByID(ctx context.Context, id string) (*domain.Sensor, error)
	ListByDevice(ctx context.Context, deviceID string) ([]domain.Sensor, error)
	Update(ctx context.Context, sensor domain.Sensor) error
	SoftDelete(ctx context.Context, id string) error
}

// ReadingRepository persists time-series sensor readings.
type ReadingRepository interface {
	Insert(ctx context.Context, reading domain.Reading) error
	ListBySensor(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]domain.Reading, error)
}
