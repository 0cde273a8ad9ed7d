package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alvarohurtadobo/iot-backend/internal/repository"
	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

// SensorHandler exposes sensor type and sensor endpoints.
type SensorHandler struct {
	fleet *usecase.FleetService
}

// NewSensorHandler constructs SensorHandler.
func NewSensorHandler(fleet *usecase.FleetService) *SensorHandler {
	return &SensorHandler{fleet: fleet}
}

// RegisterRoutes binds sensor routes onto the supplied group.
func (h *SensorHandler) RegisterRoutes(r *gin.RouterGroup) {
	sensorTypes := r.Group("/sensor-types")
	sensorTypes.POST("", h.createSensorType)
	sensorTypes.GET("", h.listSensorTypes)
	sensorTypes.PATCH("/:id", h.updateSensorType)
	sensorTypes.DELETE("/:id", h.deleteSensorType)

	sensors := r.Group("/sensors")
	sensors.POST("", h.createSensor)
	sensors.GET("/:id", h.getSensor)
	sensors.PATCH("/:id", h.updateSensor)
	sensors.DELETE("/:id", h.deleteSensor)
}

func (h *SensorHandler) createSensorType(c *gin.Context) {
	var req SensorTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sensor type payload"))
		return
	}

	sensorType, err := h.fleet.CreateSensorType(c.Request.Context(), req.Name, req.Unit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create sensor type"))
		return
	}

	c.JSON(http.StatusCreated, newSensorTypeResponse(sensorType))
}

func (h *SensorHandler) listSensorTypes(c *gin.Context) {
	sensorTypes, err := h.fleet.ListSensorTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sensor types"))
		return
	}

	out := make([]SensorTypeResponse, 0, len(sensorTypes))
	for i := range sensorTypes {
		out = append(out, newSensorTypeResponse(&sensorTypes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *SensorHandler) updateSensorType(c *gin.Context) {
	var req UpdateSensorTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sensor type payload"))
		return
	}

	sensorType, err := h.fleet.UpdateSensorType(c.Request.Context(), c.Param("id"), req.Name, req.Unit)
	if err != nil {
		h.respondSensorError(c, err, "Sensor type not found", "failed to update sensor type")
		return
	}
	c.JSON(http.StatusOK, newSensorTypeResponse(sensorType))
}

func (h *SensorHandler) deleteSensorType(c *gin.Context) {
	if err := h.fleet.DeleteSensorType(c.Request.Context(), c.Param("id")); err != nil {
		h.respondSensorError(c, err, "Sensor type not found", "failed to delete sensor type")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SensorHandler) createSensor(c *gin.Context) {
	var req CreateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sensor payload"))
		return
	}

	sensor, err := h.fleet.CreateSensor(c.Request.Context(), usecase.CreateSensorInput{
		DeviceID:     req.DeviceID,
		SensorTypeID: req.SensorTypeID,
		Name:         req.Name,
	})
	if err != nil {
		h.respondSensorError(c, err, "Device or sensor type not found", "failed to create sensor")
		return
	}

	c.JSON(http.StatusCreated, newSensorResponse(sensor))
}

func (h *SensorHandler) getSensor(c *gin.Context) {
	sensor, err := h.fleet.GetSensor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondSensorError(c, err, "Sensor not found", "failed to fetch sensor")
		return
	}
	c.JSON(http.StatusOK, newSensorResponse(sensor))
}

func (h *SensorHandler) updateSensor(c *gin.Context) {
	var req UpdateSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid sensor payload"))
		return
	}

	sensor, err := h.fleet.UpdateSensor(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.respondSensorError(c, err, "Sensor not found", "failed to update sensor")
		return
	}
	c.JSON(http.StatusOK, newSensorResponse(sensor))
}

func (h *SensorHandler) deleteSensor(c *gin.Context) {
	if err := h.fleet.DeleteSensor(c.Request.Context(), c.Param("id")); err != nil {
		h.respondSensorError(c, err, "Sensor not found", "failed to delete sensor")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SensorHandler) respondSensorError(c *gin.Context, err error, notFoundMsg, fallbackMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, notFoundMsg))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallbackMsg))
}
