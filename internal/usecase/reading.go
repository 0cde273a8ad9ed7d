package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
)

// ErrUnknownSensor indicates the reading references a sensor that does not
// exist or was soft-deleted.
var ErrUnknownSensor = errors.New("unknown sensor")

// IngestReadingInput is one time-series data point as submitted over HTTP or
// MQTT. DeviceState, when present, additionally updates the reporting
// device's state.
type IngestReadingInput struct {
	SensorID    string
	Value       float64
	Timestamp   time.Time
	DeviceState *string
}

// ReadingService ingests and queries time-series sensor readings.
type ReadingService struct {
	readings port.ReadingRepository
	sensors  port.SensorRepository
	fleet    *FleetService
	log      *zap.Logger
	now      func() time.Time
}

// NewReadingService constructs a ReadingService instance. fleet may be nil
// when device state updates are not wanted (tests).
func NewReadingService(readings port.ReadingRepository, sensors port.SensorRepository, fleet *FleetService, log *zap.Logger) *ReadingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadingService{
		readings: readings,
		sensors:  sensors,
		fleet:    fleet,
		log:      log,
		now:      time.Now,
	}
}

// Ingest validates and stores one reading. A zero timestamp is stamped with
// the current time. When the reading carries a device state, the state update
// is best-effort: the reading is already persisted and stays.
func (s *ReadingService) Ingest(ctx context.Context, in IngestReadingInput) (*domain.Reading, error) {
	sensor, err := s.sensors.GetByID(ctx, in.SensorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownSensor
		}
		return nil, fmt.Errorf("lookup sensor: %w", err)
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now().UTC()
	}

	reading := domain.Reading{
		ID:        uuid.NewString(),
		SensorID:  sensor.ID,
		Value:     in.Value,
		Timestamp: ts.UTC(),
	}

	if err := s.readings.Insert(ctx, reading); err != nil {
		return nil, fmt.Errorf("insert reading: %w", err)
	}

	if in.DeviceState != nil && s.fleet != nil {
		if _, err := s.fleet.SetDeviceState(ctx, sensor.DeviceID, *in.DeviceState); err != nil {
			s.log.Warn("update device state from reading",
				zap.String("device_id", sensor.DeviceID),
				zap.Error(err),
			)
		}
	}

	return &reading, nil
}

// ListBySensor returns readings for one sensor, newest first. Zero from/to
// bounds are open; limit <= 0 falls back to the repository default.
func (s *ReadingService) ListBySensor(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]domain.Reading, error) {
	if _, err := s.sensors.GetByID(ctx, sensorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownSensor
		}
		return nil, fmt.Errorf("lookup sensor: %w", err)
	}

	return s.readings.ListBySensor(ctx, sensorID, from, to, limit)
}
