package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
)

var sensorColumns = []string{"id", "device_id", "sensor_type_id", "name", "created_at", "updated_at", "deleted_at"}

// SensorRepository implements port.SensorRepository using PostgreSQL.
type SensorRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSensorRepository wires a PostgreSQL-backed sensor repository.
func NewSensorRepository(pool *pgxpool.Pool) *SensorRepository {
	return &SensorRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SensorRepository) Create(ctx context.Context, sensor domain.Sensor) error {
	sql, args, err := r.builder.Insert("sensors").
		Columns(sensorColumns...).
		Values(
			sensor.ID,
			sensor.DeviceID,
			sensor.SensorTypeID,
			sensor.Name,
			sensor.CreatedAt,
			sensor.UpdatedAt,
			sensor.DeletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sensor sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sensor: %w", err)
	}

	return nil
}

func (r *SensorRepository) GetByID(ctx context.Context, id string) (*domain.Sensor, error) {
	stmt, args, err := r.builder.
		Select(sensorColumns...).
		From("sensors").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sensor sql: %w", err)
	}

	return scanSensor(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *SensorRepository) ListByDevice(ctx context.Context, deviceID string) ([]domain.Sensor, error) {
	stmt, args, err := r.builder.
		Select(sensorColumns...).
		From("sensors").
		Where(squirrel.Eq{"device_id": deviceID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sensors sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	defer rows.Close()

	var sensors []domain.Sensor
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, *sensor)
	}

	return sensors, rows.Err()
}

func (r *SensorRepository) Update(ctx context.Context, sensor domain.Sensor) error {
	sql, args, err := r.builder.Update("sensors").
		Set("name", sensor.Name).
		Set("device_id", sensor.DeviceID).
		Set("sensor_type_id", sensor.SensorTypeID).
		Set("updated_at", sensor.UpdatedAt).
		Where(squirrel.Eq{"id": sensor.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update sensor sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sensor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *SensorRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "sensors", id)
}

func scanSensor(row pgx.Row) (*domain.Sensor, error) {
	var sensor domain.Sensor
	if err := row.Scan(
		&sensor.ID,
		&sensor.DeviceID,
		&sensor.SensorTypeID,
		&sensor.Name,
		&sensor.CreatedAt,
		&sensor.UpdatedAt,
		&sensor.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan sensor: %w", err)
	}

	return &sensor, nil
}

var _ port.SensorRepository = (*SensorRepository)(nil)
