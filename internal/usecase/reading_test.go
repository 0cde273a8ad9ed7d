package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
)

type stubSensorRepository struct {
	sensor *domain.Sensor
}

func (r *stubSensorRepository) Create(context.Context, domain.Sensor) error {
	return errors.New("unexpected call: Create")
}

func (r *stubSensorRepository) GetByID(_ context.Context, id string) (*domain.Sensor, error) {
	if r.sensor == nil || r.sensor.ID != id {
		return nil, repository.ErrNotFound
	}
	s := *r.sensor
	return &s, nil
}

func (r *stubSensorRepository) ListByDevice(context.Context, string) ([]domain.Sensor, error) {
	return nil, errors.New("unexpected call: ListByDevice")
}

func (r *stubSensorRepository) Update(context.Context, domain.Sensor) error {
	return errors.New("unexpected call: Update")
}

func (r *stubSensorRepository) SoftDelete(context.Context, string) error {
	return errors.New("unexpected call: SoftDelete")
}

type stubReadingRepository struct {
	inserted []domain.Reading
	stored   []domain.Reading
}

func (r *stubReadingRepository) Insert(_ context.Context, reading domain.Reading) error {
	r.inserted = append(r.inserted, reading)
	return nil
}

func (r *stubReadingRepository) ListBySensor(_ context.Context, sensorID string, _, _ time.Time, _ int) ([]domain.Reading, error) {
	var out []domain.Reading
	for _, reading := range r.stored {
		if reading.SensorID == sensorID {
			out = append(out, reading)
		}
	}
	return out, nil
}

func TestIngestStoresReading(t *testing.T) {
	sensors := &stubSensorRepository{sensor: &domain.Sensor{ID: "s1", DeviceID: "d1"}}
	readings := &stubReadingRepository{}
	service := NewReadingService(readings, sensors, nil, nil)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reading, err := service.Ingest(context.Background(), IngestReadingInput{
		SensorID:  "s1",
		Value:     21.5,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if reading.SensorID != "s1" || reading.Value != 21.5 {
		t.Fatalf("reading = %+v", reading)
	}
	if !reading.Timestamp.Equal(ts) {
		t.Fatalf("timestamp = %v", reading.Timestamp)
	}
	if len(readings.inserted) != 1 {
		t.Fatalf("inserted = %d", len(readings.inserted))
	}
	if readings.inserted[0].ID == "" {
		t.Fatal("reading id missing")
	}
}

func TestIngestStampsZeroTimestamp(t *testing.T) {
	sensors := &stubSensorRepository{sensor: &domain.Sensor{ID: "s1", DeviceID: "d1"}}
	readings := &stubReadingRepository{}
	service := NewReadingService(readings, sensors, nil, nil)

	before := time.Now().UTC()
	reading, err := service.Ingest(context.Background(), IngestReadingInput{SensorID: "s1", Value: 1})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	after := time.Now().UTC()

	if reading.Timestamp.Before(before) || reading.Timestamp.After(after) {
		t.Fatalf("timestamp %v not stamped with current time", reading.Timestamp)
	}
}

func TestIngestRejectsUnknownSensor(t *testing.T) {
	sensors := &stubSensorRepository{}
	readings := &stubReadingRepository{}
	service := NewReadingService(readings, sensors, nil, nil)

	_, err := service.Ingest(context.Background(), IngestReadingInput{SensorID: "missing", Value: 1})
	if !errors.Is(err, ErrUnknownSensor) {
		t.Fatalf("err = %v, want ErrUnknownSensor", err)
	}
	if len(readings.inserted) != 0 {
		t.Fatal("nothing should be inserted for an unknown sensor")
	}
}

func TestListBySensorValidatesSensor(t *testing.T) {
	sensors := &stubSensorRepository{sensor: &domain.Sensor{ID: "s1", DeviceID: "d1"}}
	readings := &stubReadingRepository{stored: []domain.Reading{
		{ID: "r1", SensorID: "s1", Value: 1},
		{ID: "r2", SensorID: "other", Value: 2},
	}}
	service := NewReadingService(readings, sensors, nil, nil)

	out, err := service.ListBySensor(context.Background(), "s1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("ListBySensor: %v", err)
	}
	if len(out) != 1 || out[0].ID != "r1" {
		t.Fatalf("out = %+v", out)
	}

	if _, err := service.ListBySensor(context.Background(), "missing", time.Time{}, time.Time{}, 0); !errors.Is(err, ErrUnknownSensor) {
		t.Fatalf("err = %v, want ErrUnknownSensor", err)
	}
}
