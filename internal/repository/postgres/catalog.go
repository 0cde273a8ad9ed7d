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

// DeviceTypeRepository implements port.DeviceTypeRepository using PostgreSQL.
type DeviceTypeRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDeviceTypeRepository wires a PostgreSQL-backed device type repository.
func NewDeviceTypeRepository(pool *pgxpool.Pool) *DeviceTypeRepository {
	return &DeviceTypeRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var deviceTypeColumns = []string{"id", "name", "created_at", "updated_at", "deleted_at"}

func (r *DeviceTypeRepository) Create(ctx context.Context, deviceType domain.DeviceType) error {
	sql, args, err := r.builder.Insert("device_types").
		Columns(deviceTypeColumns...).
		Values(deviceType.ID, deviceType.Name, deviceType.CreatedAt, deviceType.UpdatedAt, deviceType.DeletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert device type sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert device type: %w", err)
	}

	return nil
}

func (r *DeviceTypeRepository) GetByID(ctx context.Context, id string) (*domain.DeviceType, error) {
	stmt, args, err := r.builder.
		Select(deviceTypeColumns...).
		From("device_types").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select device type sql: %w", err)
	}

	var deviceType domain.DeviceType
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&deviceType.ID, &deviceType.Name, &deviceType.CreatedAt, &deviceType.UpdatedAt, &deviceType.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan device type: %w", err)
	}

	return &deviceType, nil
}

func (r *DeviceTypeRepository) List(ctx context.Context) ([]domain.DeviceType, error) {
	stmt, args, err := r.builder.
		Select(deviceTypeColumns...).
		From("device_types").
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list device types sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list device types: %w", err)
	}
	defer rows.Close()

	var deviceTypes []domain.DeviceType
	for rows.Next() {
		var deviceType domain.DeviceType
		if err := rows.Scan(&deviceType.ID, &deviceType.Name, &deviceType.CreatedAt, &deviceType.UpdatedAt, &deviceType.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan device type: %w", err)
		}
		deviceTypes = append(deviceTypes, deviceType)
	}

	return deviceTypes, rows.Err()
}

func (r *DeviceTypeRepository) Update(ctx context.Context, deviceType domain.DeviceType) error {
	sql, args, err := r.builder.Update("device_types").
		Set("name", deviceType.Name).
		Set("updated_at", deviceType.UpdatedAt).
		Where(squirrel.Eq{"id": deviceType.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update device type sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update device type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DeviceTypeRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "device_types", id)
}

// SensorTypeRepository implements port.SensorTypeRepository using PostgreSQL.
type SensorTypeRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSensorTypeRepository wires a PostgreSQL-backed sensor type repository.
func NewSensorTypeRepository(pool *pgxpool.Pool) *SensorTypeRepository {
	return &SensorTypeRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var sensorTypeColumns = []string{"id", "name", "unit", "created_at", "updated_at", "deleted_at"}

func (r *SensorTypeRepository) Create(ctx context.Context, sensorType domain.SensorType) error {
	sql, args, err := r.builder.Insert("sensor_types").
		Columns(sensorTypeColumns...).
		Values(sensorType.ID, sensorType.Name, sensorType.Unit, sensorType.CreatedAt, sensorType.UpdatedAt, sensorType.DeletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sensor type sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sensor type: %w", err)
	}

	return nil
}

func (r *SensorTypeRepository) GetByID(ctx context.Context, id string) (*domain.SensorType, error) {
	stmt, args, err := r.builder.
		Select(sensorTypeColumns...).
		From("sensor_types").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select sensor type sql: %w", err)
	}

	var sensorType domain.SensorType
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&sensorType.ID, &sensorType.Name, &sensorType.Unit, &sensorType.CreatedAt, &sensorType.UpdatedAt, &sensorType.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan sensor type: %w", err)
	}

	return &sensorType, nil
}

func (r *SensorTypeRepository) List(ctx context.Context) ([]domain.SensorType, error) {
	stmt, args, err := r.builder.
		Select(sensorTypeColumns...).
		From("sensor_types").
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sensor types sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list sensor types: %w", err)
	}
	defer rows.Close()

	var sensorTypes []domain.SensorType
	for rows.Next() {
		var sensorType domain.SensorType
		if err := rows.Scan(&sensorType.ID, &sensorType.Name, &sensorType.Unit, &sensorType.CreatedAt, &sensorType.UpdatedAt, &sensorType.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan sensor type: %w", err)
		}
		sensorTypes = append(sensorTypes, sensorType)
	}

	return sensorTypes, rows.Err()
}

func (r *SensorTypeRepository) Update(ctx context.Context, sensorType domain.SensorType) error {
	sql, args, err := r.builder.Update("sensor_types").
		Set("name", sensorType.Name).
		Set("unit", sensorType.Unit).
		Set("updated_at", sensorType.UpdatedAt).
		Where(squirrel.Eq{"id": sensorType.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update sensor type sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sensor type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *SensorTypeRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "sensor_types", id)
}

var (
	_ port.DeviceTypeRepository = (*DeviceTypeRepository)(nil)
	_ port.SensorTypeRepository = (*SensorTypeRepository)(nil)
)
