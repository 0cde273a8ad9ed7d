package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

// FleetService implements CRUD for the fleet hierarchy: businesses, branches,
// machines, device types, devices, sensor types, and sensors. Device state
// changes additionally publish an event.
type FleetService struct {
	businesses  port.BusinessRepository
	branches    port.BranchRepository
	machines    port.MachineRepository
	deviceTypes port.DeviceTypeRepository
	devices     port.DeviceRepository
	sensorTypes port.SensorTypeRepository
	sensors     port.SensorRepository
	events      port.EventPublisher
	log         *zap.Logger
	now         func() time.Time
}

// NewFleetService constructs a FleetService instance.
func NewFleetService(
	businesses port.BusinessRepository,
	branches port.BranchRepository,
	machines port.MachineRepository,
	deviceTypes port.DeviceTypeRepository,
	devices port.DeviceRepository,
	sensorTypes port.SensorTypeRepository,
	sensors port.SensorRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *FleetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FleetService{
		businesses:  businesses,
		branches:    branches,
		machines:    machines,
		deviceTypes: deviceTypes,
		devices:     devices,
		sensorTypes: sensorTypes,
		sensors:     sensors,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

// Businesses.

func (s *FleetService) CreateBusiness(ctx context.Context, name string) (*domain.Business, error) {
	now := s.now().UTC()
	business := domain.Business{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.businesses.Create(ctx, business); err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}
	return &business, nil
}

func (s *FleetService) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return s.businesses.GetByID(ctx, id)
}

func (s *FleetService) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	return s.businesses.List(ctx)
}

func (s *FleetService) UpdateBusiness(ctx context.Context, id, name string) (*domain.Business, error) {
	business, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	business.Name = name
	business.UpdatedAt = s.now().UTC()
	if err := s.businesses.Update(ctx, *business); err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}
	return business, nil
}

func (s *FleetService) DeleteBusiness(ctx context.Context, id string) error {
	return s.businesses.SoftDelete(ctx, id)
}

// Branches.

// CreateBranchInput carries the fields accepted on branch creation.
type CreateBranchInput struct {
	BusinessID       string
	Name             string
	Address          *string
	RepresentativeID *string
}

func (s *FleetService) CreateBranch(ctx context.Context, in CreateBranchInput) (*domain.Branch, error) {
	if _, err := s.businesses.GetByID(ctx, in.BusinessID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	branch := domain.Branch{
		ID:               uuid.NewString(),
		BusinessID:       in.BusinessID,
		Name:             in.Name,
		Address:          in.Address,
		RepresentativeID: in.RepresentativeID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.branches.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	return &branch, nil
}

func (s *FleetService) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	return s.branches.GetByID(ctx, id)
}

func (s *FleetService) ListBranches(ctx context.Context, businessID string) ([]domain.Branch, error) {
	return s.branches.ListByBusiness(ctx, businessID)
}

// UpdateBranchInput carries the fields accepted on branch update.
type UpdateBranchInput struct {
	Name             *string
	Address          *string
	RepresentativeID *string
}

func (s *FleetService) UpdateBranch(ctx context.Context, id string, in UpdateBranchInput) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		branch.Name = *in.Name
	}
	if in.Address != nil {
		branch.Address = in.Address
	}
	if in.RepresentativeID != nil {
		branch.RepresentativeID = in.RepresentativeID
	}
	branch.UpdatedAt = s.now().UTC()
	if err := s.branches.Update(ctx, *branch); err != nil {
		return nil, fmt.Errorf("update branch: %w", err)
	}
	return branch, nil
}

func (s *FleetService) DeleteBranch(ctx context.Context, id string) error {
	return s.branches.SoftDelete(ctx, id)
}

// Machines.

func (s *FleetService) CreateMachine(ctx context.Context, branchID, name string) (*domain.Machine, error) {
	if _, err := s.branches.GetByID(ctx, branchID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	machine := domain.Machine{ID: uuid.NewString(), BranchID: branchID, Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.machines.Create(ctx, machine); err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}
	return &machine, nil
}

func (s *FleetService) GetMachine(ctx context.Context, id string) (*domain.Machine, error) {
	return s.machines.GetByID(ctx, id)
}

func (s *FleetService) ListMachines(ctx context.Context, branchID string) ([]domain.Machine, error) {
	return s.machines.ListByBranch(ctx, branchID)
}

func (s *FleetService) UpdateMachine(ctx context.Context, id string, name *string, branchID *string) (*domain.Machine, error) {
	machine, err := s.machines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		machine.Name = *name
	}
	if branchID != nil {
		machine.BranchID = *branchID
	}
	machine.UpdatedAt = s.now().UTC()
	if err := s.machines.Update(ctx, *machine); err != nil {
		return nil, fmt.Errorf("update machine: %w", err)
	}
	return machine, nil
}

func (s *FleetService) DeleteMachine(ctx context.Context, id string) error {
	return s.machines.SoftDelete(ctx, id)
}

// Device types.

func (s *FleetService) CreateDeviceType(ctx context.Context, name string) (*domain.DeviceType, error) {
	now := s.now().UTC()
	deviceType := domain.DeviceType{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := s.deviceTypes.Create(ctx, deviceType); err != nil {
		return nil, fmt.Errorf("create device type: %w", err)
	}
	return &deviceType, nil
}

func (s *FleetService) ListDeviceTypes(ctx context.Context) ([]domain.DeviceType, error) {
	return s.deviceTypes.List(ctx)
}

func (s *FleetService) UpdateDeviceType(ctx context.Context, id, name string) (*domain.DeviceType, error) {
	deviceType, err := s.deviceTypes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	deviceType.Name = name
	deviceType.UpdatedAt = s.now().UTC()
	if err := s.deviceTypes.Update(ctx, *deviceType); err != nil {
		return nil, fmt.Errorf("update device type: %w", err)
	}
	return deviceType, nil
}

func (s *FleetService) DeleteDeviceType(ctx context.Context, id string) error {
	return s.deviceTypes.SoftDelete(ctx, id)
}

// Devices.

// CreateDeviceInput carries the fields accepted on device creation.
type CreateDeviceInput struct {
	MachineID    string
	DeviceTypeID string
	Name         string
	State        string
}

func (s *FleetService) CreateDevice(ctx context.Context, in CreateDeviceInput) (*domain.Device, error) {
	if _, err := s.machines.GetByID(ctx, in.MachineID); err != nil {
		return nil, err
	}
	if _, err := s.deviceTypes.GetByID(ctx, in.DeviceTypeID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	device := domain.Device{
		ID:           uuid.NewString(),
		MachineID:    in.MachineID,
		DeviceTypeID: in.DeviceTypeID,
		Name:         in.Name,
		State:        in.State,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}
	return &device, nil
}

func (s *FleetService) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	return s.devices.GetByID(ctx, id)
}

func (s *FleetService) ListDevices(ctx context.Context, machineID string) ([]domain.Device, error) {
	return s.devices.ListByMachine(ctx, machineID)
}

// UpdateDeviceInput carries the fields accepted on device update.
type UpdateDeviceInput struct {
	Name         *string
	MachineID    *string
	DeviceTypeID *string
}

func (s *FleetService) UpdateDevice(ctx context.Context, id string, in UpdateDeviceInput) (*domain.Device, error) {
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		device.Name = *in.Name
	}
	if in.MachineID != nil {
		device.MachineID = *in.MachineID
	}
	if in.DeviceTypeID != nil {
		device.DeviceTypeID = *in.DeviceTypeID
	}
	device.UpdatedAt = s.now().UTC()
	if err := s.devices.Update(ctx, *device); err != nil {
		return nil, fmt.Errorf("update device: %w", err)
	}
	return device, nil
}

func (s *FleetService) DeleteDevice(ctx context.Context, id string) error {
	return s.devices.SoftDelete(ctx, id)
}

// SetDeviceState records a device-reported state and publishes a change
// event. State is free-form: devices report whatever string describes their
// condition.
func (s *FleetService) SetDeviceState(ctx context.Context, id, state string) (*domain.Device, error) {
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldState := device.State
	now := s.now().UTC()

	if err := s.devices.UpdateState(ctx, id, state, now); err != nil {
		return nil, fmt.Errorf("update device state: %w", err)
	}

	device.State = state
	device.UpdatedAt = now

	if s.events != nil && oldState != state {
		if err := s.events.PublishDeviceStateChanged(ctx, domain.DeviceStateChangedEvent{
			DeviceID:   id,
			OldState:   oldState,
			NewState:   state,
			OccurredAt: now,
		}); err != nil {
			s.log.Warn("publish device state changed event", zap.Error(err))
		}
	}

	return device, nil
}

// Sensor types.

func (s *FleetService) CreateSensorType(ctx context.Context, name string, unit *string) (*domain.SensorType, error) {
	now := s.now().UTC()
	sensorType := domain.SensorType{ID: uuid.NewString(), Name: name, Unit: unit, CreatedAt: now, UpdatedAt: now}
	if err := s.sensorTypes.Create(ctx, sensorType); err != nil {
		return nil, fmt.Errorf("create sensor type: %w", err)
	}
	return &sensorType, nil
}

func (s *FleetService) ListSensorTypes(ctx context.Context) ([]domain.SensorType, error) {
	return s.sensorTypes.List(ctx)
}

func (s *FleetService) UpdateSensorType(ctx context.Context, id string, name *string, unit *string) (*domain.SensorType, error) {
	sensorType, err := s.sensorTypes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		sensorType.Name = *name
	}
	if unit != nil {
		sensorType.Unit = unit
	}
	sensorType.UpdatedAt = s.now().UTC()
	if err := s.sensorTypes.Update(ctx, *sensorType); err != nil {
		return nil, fmt.Errorf("update sensor type: %w", err)
	}
	return sensorType, nil
}

func (s *FleetService) DeleteSensorType(ctx context.Context, id string) error {
	return s.sensorTypes.SoftDelete(ctx, id)
}

// Sensors.

// CreateSensorInput carries the fields accepted on sensor creation.
type CreateSensorInput struct {
	DeviceID     string
	SensorTypeID string
	Name         string
}

func (s *FleetService) CreateSensor(ctx context.Context, in CreateSensorInput) (*domain.Sensor, error) {
	if _, err := s.devices.GetByID(ctx, in.DeviceID); err != nil {
		return nil, err
	}
	if _, err := s.sensorTypes.GetByID(ctx, in.SensorTypeID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sensor := domain.Sensor{
		ID:           uuid.NewString(),
		DeviceID:     in.DeviceID,
		SensorTypeID: in.SensorTypeID,
		Name:         in.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sensors.Create(ctx, sensor); err != nil {
		return nil, fmt.Errorf("create sensor: %w", err)
	}
	return &sensor, nil
}

func (s *FleetService) GetSensor(ctx context.Context, id string) (*domain.Sensor, error) {
	return s.sensors.GetByID(ctx, id)
}

func (s *FleetService) ListSensors(ctx context.Context, deviceID string) ([]domain.Sensor, error) {
	return s.sensors.ListByDevice(ctx, deviceID)
}

func (s *FleetService) UpdateSensor(ctx context.Context, id string, name *string) (*domain.Sensor, error) {
	sensor, err := s.sensors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		sensor.Name = *name
	}
	sensor.UpdatedAt = s.now().UTC()
	if err := s.sensors.Update(ctx, *sensor); err != nil {
		return nil, fmt.Errorf("update sensor: %w", err)
	}
	return sensor, nil
}

func (s *FleetService) DeleteSensor(ctx context.Context, id string) error {
	return s.sensors.SoftDelete(ctx, id)
}
