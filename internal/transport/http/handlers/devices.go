package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alvarohurtadobo/iot-backend/internal/repository"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

// DeviceHandler exposes device type and device endpoints, including state
// reports.
type DeviceHandler struct {
	fleet *usecase.FleetService
}

// NewDeviceHandler constructs DeviceHandler.
func NewDeviceHandler(fleet *usecase.FleetService) *DeviceHandler {
	return &DeviceHandler{fleet: fleet}
}

// RegisterRoutes binds device routes onto the supplied group.
func (h *DeviceHandler) RegisterRoutes(r *gin.RouterGroup) {
	deviceTypes := r.Group("/device-types")
	deviceTypes.POST("", h.createDeviceType)
	deviceTypes.GET("", h.listDeviceTypes)
	deviceTypes.PATCH("/:id", h.updateDeviceType)
	deviceTypes.DELETE("/:id", h.deleteDeviceType)

	devices := r.Group("/devices")
	devices.POST("", h.createDevice)
	devices.GET("/:id", h.getDevice)
	devices.PATCH("/:id", h.updateDevice)
	devices.PATCH("/:id/state", h.setDeviceState)
	devices.DELETE("/:id", h.deleteDevice)
	devices.GET("/:id/sensors", h.listDeviceSensors)

	r.GET("/machines/:id/devices", h.listDevices)
}

func (h *DeviceHandler) createDeviceType(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid device type payload"))
		return
	}

	deviceType, err := h.fleet.CreateDeviceType(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create device type"))
		return
	}

	c.JSON(http.StatusCreated, newDeviceTypeResponse(deviceType))
}

func (h *DeviceHandler) listDeviceTypes(c *gin.Context) {
	deviceTypes, err := h.fleet.ListDeviceTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list device types"))
		return
	}

	out := make([]DeviceTypeResponse, 0, len(deviceTypes))
	for i := range deviceTypes {
		out = append(out, newDeviceTypeResponse(&deviceTypes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *DeviceHandler) updateDeviceType(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid device type payload"))
		return
	}

	deviceType, err := h.fleet.UpdateDeviceType(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.respondDeviceError(c, err, "Device type not found", "failed to update device type")
		return
	}
	c.JSON(http.StatusOK, newDeviceTypeResponse(deviceType))
}

func (h *DeviceHandler) deleteDeviceType(c *gin.Context) {
	if err := h.fleet.DeleteDeviceType(c.Request.Context(), c.Param("id")); err != nil {
		h.respondDeviceError(c, err, "Device type not found", "failed to delete device type")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) createDevice(c *gin.Context) {
	var req CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid device payload"))
		return
	}

	device, err := h.fleet.CreateDevice(c.Request.Context(), usecase.CreateDeviceInput{
		MachineID:    req.MachineID,
		DeviceTypeID: req.DeviceTypeID,
		Name:         req.Name,
		State:        req.State,
	})
	if err != nil {
		h.respondDeviceError(c, err, "Machine or device type not found", "failed to create device")
		return
	}

	c.JSON(http.StatusCreated, newDeviceResponse(device))
}

func (h *DeviceHandler) listDevices(c *gin.Context) {
	devices, err := h.fleet.ListDevices(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list devices"))
		return
	}

	out := make([]DeviceResponse, 0, len(devices))
	for i := range devices {
		out = append(out, newDeviceResponse(&devices[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *DeviceHandler) getDevice(c *gin.Context) {
	device, err := h.fleet.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondDeviceError(c, err, "Device not found", "failed to fetch device")
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(device))
}

func (h *DeviceHandler) updateDevice(c *gin.Context) {
	var req UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid device payload"))
		return
	}

	device, err := h.fleet.UpdateDevice(c.Request.Context(), c.Param("id"), usecase.UpdateDeviceInput{
		Name:         req.Name,
		MachineID:    req.MachineID,
		DeviceTypeID: req.DeviceTypeID,
	})
	if err != nil {
		h.respondDeviceError(c, err, "Device not found", "failed to update device")
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(device))
}

func (h *DeviceHandler) setDeviceState(c *gin.Context) {
	var req DeviceStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid state payload"))
		return
	}

	device, err := h.fleet.SetDeviceState(c.Request.Context(), c.Param("id"), req.State)
	if err != nil {
		h.respondDeviceError(c, err, "Device not found", "failed to update device state")
		return
	}
	c.JSON(http.StatusOK, newDeviceResponse(device))
}

func (h *DeviceHandler) deleteDevice(c *gin.Context) {
	if err := h.fleet.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		h.respondDeviceError(c, err, "Device not found", "failed to delete device")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeviceHandler) listDeviceSensors(c *gin.Context) {
	sensors, err := h.fleet.ListSensors(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sensors"))
		return
	}

	out := make([]SensorResponse, 0, len(sensors))
	for i := range sensors {
		out = append(out, newSensorResponse(&sensors[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *DeviceHandler) respondDeviceError(c *gin.Context, err error, notFoundMsg, fallbackMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, notFoundMsg))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallbackMsg))
}
