package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alvarohurtadobo/iot-backend/internal/usecase"
)

// ReadingHandler exposes time-series ingestion and query endpoints.
type ReadingHandler struct {
	readings *usecase.ReadingService
}

// NewReadingHandler constructs ReadingHandler.
func NewReadingHandler(readings *usecase.ReadingService) *ReadingHandler {
	return &ReadingHandler{readings: readings}
}

// RegisterRoutes binds reading routes onto the supplied group.
func (h *ReadingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/iot/data", h.ingest)
	r.GET("/iot/data/:sensor_id", h.listBySensor)
}

func (h *ReadingHandler) ingest(c *gin.Context) {
	var req IngestReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reading payload"))
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "timestamp must be RFC 3339"))
			return
		}
		ts = parsed
	}

	reading, err := h.readings.Ingest(c.Request.Context(), usecase.IngestReadingInput{
		SensorID:    req.SensorID,
		Value:       req.Value,
		Timestamp:   ts,
		DeviceState: req.DeviceState,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownSensor) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "Sensor not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to store reading"))
		return
	}

	c.JSON(http.StatusCreated, newReadingResponse(reading))
}

func (h *ReadingHandler) listBySensor(c *gin.Context) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "from must be RFC 3339"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "to must be RFC 3339"))
			return
		}
		to = parsed
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	readings, err := h.readings.ListBySensor(c.Request.Context(), c.Param("sensor_id"), from, to, limit)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownSensor) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "Sensor not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list readings"))
		return
	}

	out := make([]ReadingResponse, 0, len(readings))
	for i := range readings {
		out = append(out, newReadingResponse(&readings[i]))
	}
	c.JSON(http.StatusOK, out)
}
