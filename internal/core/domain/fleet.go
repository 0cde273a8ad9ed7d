package domain

import "time"

// Business is the top of the fleet hierarchy.
type Business struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Branch is a physical location belonging to a business.
type Branch struct {
	ID               string
	BusinessID       string
	Name             string
	Address          *string
	RepresentativeID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// Machine is a piece of equipment installed at a branch.
type Machine struct {
	ID        string
	BranchID  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// DeviceType categorizes devices (gateway, controller, ...).
type DeviceType struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Device is a physical unit attached to a machine. State is a free-form
// string reported by the device itself.
type Device struct {
	ID           string
	MachineID    string
	DeviceTypeID string
	Name         string
	State        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// SensorType categorizes sensors (temperature, vibration, ...).
type SensorType struct {
	ID        string
	Name      string
	Unit      *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Sensor emits time-series readings for a device.
type Sensor struct {
	ID           string
	DeviceID     string
	SensorTypeID string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Reading is a single time-series data point reported by a sensor.
type Reading struct {
	ID        string
	SensorID  string
	Value     float64
	Timestamp time.Time
}
