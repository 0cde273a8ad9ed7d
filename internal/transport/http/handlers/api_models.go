package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for
// debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned for a successful login or refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshRequest represents the payload to rotate a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest represents the payload to revoke a refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse is the API view of a user. The password hash never leaves the
// service.
type UserResponse struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	ProfilePicture *string    `json:"profile_picture,omitempty"`
	Email          string     `json:"email"`
	RoleID         string     `json:"role_id"`
	BusinessID     *string    `json:"business_id,omitempty"`
	BranchID       *string    `json:"branch_id,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		ProfilePicture: user.ProfilePicture,
		Email:          user.Email,
		RoleID:         user.RoleID,
		BusinessID:     user.BusinessID,
		BranchID:       user.BranchID,
		LastLoginAt:    user.LastLoginAt,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// CreateUserRequest defines the payload for user creation.
type CreateUserRequest struct {
	FirstName      string  `json:"first_name" binding:"required"`
	LastName       string  `json:"last_name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required"`
	ProfilePicture *string `json:"profile_picture"`
	RoleID         string  `json:"role_id" binding:"required"`
	BusinessID     *string `json:"business_id"`
	BranchID       *string `json:"branch_id"`
}

// UpdateUserRequest defines the payload for partial user updates.
type UpdateUserRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	ProfilePicture *string `json:"profile_picture"`
	RoleID         *string `json:"role_id"`
	BusinessID     *string `json:"business_id"`
	BranchID       *string `json:"branch_id"`
}

// RoleRequest defines the payload for role creation.
type RoleRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// UpdateRoleRequest defines the payload for role updates.
type UpdateRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// RoleResponse is the API view of a role.
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newRoleResponse(role *domain.Role) RoleResponse {
	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
	}
}

// BusinessRequest defines the payload for business creation and update.
type BusinessRequest struct {
	Name string `json:"name" binding:"required"`
}

// BusinessResponse is the API view of a business.
type BusinessResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newBusinessResponse(business *domain.Business) BusinessResponse {
	return BusinessResponse{
		ID:        business.ID,
		Name:      business.Name,
		CreatedAt: business.CreatedAt,
		UpdatedAt: business.UpdatedAt,
	}
}

// CreateBranchRequest defines the payload for branch creation.
type CreateBranchRequest struct {
	BusinessID       string  `json:"business_id" binding:"required"`
	Name             string  `json:"name" binding:"required"`
	Address          *string `json:"address"`
	RepresentativeID *string `json:"representative_id"`
}

// UpdateBranchRequest defines the payload for branch updates.
type UpdateBranchRequest struct {
	Name             *string `json:"name"`
	Address          *string `json:"address"`
	RepresentativeID *string `json:"representative_id"`
}

// BranchResponse is the API view of a branch.
type BranchResponse struct {
	ID               string    `json:"id"`
	BusinessID       string    `json:"business_id"`
	Name             string    `json:"name"`
	Address          *string   `json:"address,omitempty"`
	RepresentativeID *string   `json:"representative_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newBranchResponse(branch *domain.Branch) BranchResponse {
	return BranchResponse{
		ID:               branch.ID,
		BusinessID:       branch.BusinessID,
		Name:             branch.Name,
		Address:          branch.Address,
		RepresentativeID: branch.RepresentativeID,
		CreatedAt:        branch.CreatedAt,
		UpdatedAt:        branch.UpdatedAt,
	}
}

// CreateMachineRequest defines the payload for machine creation.
type CreateMachineRequest struct {
	BranchID string `json:"branch_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// UpdateMachineRequest defines the payload for machine updates.
type UpdateMachineRequest struct {
	Name     *string `json:"name"`
	BranchID *string `json:"branch_id"`
}

// MachineResponse is the API view of a machine.
type MachineResponse struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branch_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newMachineResponse(machine *domain.Machine) MachineResponse {
	return MachineResponse{
		ID:        machine.ID,
		BranchID:  machine.BranchID,
		Name:      machine.Name,
		CreatedAt: machine.CreatedAt,
		UpdatedAt: machine.UpdatedAt,
	}
}

// NameRequest is the payload for catalog entries keyed by name only.
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// DeviceTypeResponse is the API view of a device type.
type DeviceTypeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newDeviceTypeResponse(deviceType *domain.DeviceType) DeviceTypeResponse {
	return DeviceTypeResponse{
		ID:        deviceType.ID,
		Name:      deviceType.Name,
		CreatedAt: deviceType.CreatedAt,
		UpdatedAt: deviceType.UpdatedAt,
	}
}

// CreateDeviceRequest defines the payload for device creation.
type CreateDeviceRequest struct {
	MachineID    string `json:"machine_id" binding:"required"`
	DeviceTypeID string `json:"device_type_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	State        string `json:"state"`
}

// UpdateDeviceRequest defines the payload for device updates.
type UpdateDeviceRequest struct {
	Name         *string `json:"name"`
	MachineID    *string `json:"machine_id"`
	DeviceTypeID *string `json:"device_type_id"`
}

// DeviceStateRequest defines the payload for device state reports.
type DeviceStateRequest struct {
	State string `json:"state" binding:"required"`
}

// DeviceResponse is the API view of a device.
type DeviceResponse struct {
	ID           string    `json:"id"`
	MachineID    string    `json:"machine_id"`
	DeviceTypeID string    `json:"device_type_id"`
	Name         string    `json:"name"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newDeviceResponse(device *domain.Device) DeviceResponse {
	return DeviceResponse{
		ID:           device.ID,
		MachineID:    device.MachineID,
		DeviceTypeID: device.DeviceTypeID,
		Name:         device.Name,
		State:        device.State,
		CreatedAt:    device.CreatedAt,
		UpdatedAt:    device.UpdatedAt,
	}
}

// SensorTypeRequest defines the payload for sensor type creation.
type SensorTypeRequest struct {
	Name string  `json:"name" binding:"required"`
	Unit *string `json:"unit"`
}

// UpdateSensorTypeRequest defines the payload for sensor type updates.
type UpdateSensorTypeRequest struct {
	Name *string `json:"name"`
	Unit *string `json:"unit"`
}

// SensorTypeResponse is the API view of a sensor type.
type SensorTypeResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      *string   `json:"unit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSensorTypeResponse(sensorType *domain.SensorType) SensorTypeResponse {
	return SensorTypeResponse{
		ID:        sensorType.ID,
		Name:      sensorType.Name,
		Unit:      sensorType.Unit,
		CreatedAt: sensorType.CreatedAt,
		UpdatedAt: sensorType.UpdatedAt,
	}
}

// CreateSensorRequest defines the payload for sensor creation.
type CreateSensorRequest struct {
	DeviceID     string `json:"device_id" binding:"required"`
	SensorTypeID string `json:"sensor_type_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
}

// UpdateSensorRequest defines the payload for sensor updates.
type UpdateSensorRequest struct {
	Name *string `json:"name"`
}

// SensorResponse is the API view of a sensor.
type SensorResponse struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"device_id"`
	SensorTypeID string    `json:"sensor_type_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newSensorResponse(sensor *domain.Sensor) SensorResponse {
	return SensorResponse{
		ID:           sensor.ID,
		DeviceID:     sensor.DeviceID,
		SensorTypeID: sensor.SensorTypeID,
		Name:         sensor.Name,
		CreatedAt:    sensor.CreatedAt,
		UpdatedAt:    sensor.UpdatedAt,
	}
}

// IngestReadingRequest is one time-series data point submitted over HTTP.
// Timestamp is RFC 3339 and optional. DeviceState, when present, also updates
// the reporting device's state.
type IngestReadingRequest struct {
	SensorID    string  `json:"sensor_id" binding:"required"`
	Value       float64 `json:"value"`
	Timestamp   string  `json:"timestamp"`
	DeviceState *string `json:"device_state"`
}

// ReadingResponse is the API view of one reading.
type ReadingResponse struct {
	ID        string    `json:"id"`
	SensorID  string    `json:"sensor_id"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

func newReadingResponse(reading *domain.Reading) ReadingResponse {
	return ReadingResponse{
		ID:        reading.ID,
		SensorID:  reading.SensorID,
		Value:     reading.Value,
		Timestamp: reading.Timestamp,
	}
}

// HealthResponse describes the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
