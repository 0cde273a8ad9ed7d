package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
	"github.com/alvarohurtadobo/iot-backend/internal/repository"
)

var deviceColumns = []string{"id", "machine_id", "device_type_id", "name", "state", "created_at", "updated_at", "deleted_at"}

// DeviceRepository implements port.DeviceRepository using PostgreSQL.
type DeviceRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDeviceRepository wires a PostgreSQL-backed device repository.
func NewDeviceRepository(pool *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *DeviceRepository) Create(ctx context.Context, device domain.Device) error {
	sql, args, err := r.builder.Insert("devices").
		Columns(deviceColumns...).
		Values(
			device.ID,
			device.MachineID,
			device.DeviceTypeID,
			device.Name,
			device.State,
			device.CreatedAt,
			device.UpdatedAt,
			device.DeletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert device sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	stmt, args, err := r.builder.
		Select(deviceColumns...).
		From("devices").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select device sql: %w", err)
	}

	return scanDevice(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *DeviceRepository) ListByMachine(ctx context.Context, machineID string) ([]domain.Device, error) {
	stmt, args, err := r.builder.
		Select(deviceColumns...).
		From("devices").
		Where(squirrel.Eq{"machine_id": machineID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list devices sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *device)
	}

	return devices, rows.Err()
}

func (r *DeviceRepository) Update(ctx context.Context, device domain.Device) error {
	sql, args, err := r.builder.Update("devices").
		Set("name", device.Name).
		Set("machine_id", device.MachineID).
		Set("device_type_id", device.DeviceTypeID).
		Set("state", device.State).
		Set("updated_at", device.UpdatedAt).
		Where(squirrel.Eq{"id": device.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update device sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateState writes only the reported state. State is a free-form string:
// devices firmware reports values like "running" or "error:42".
func (r *DeviceRepository) UpdateState(ctx context.Context, id, state string, at time.Time) error {
	sql, args, err := r.builder.Update("devices").
		Set("state", state).
		Set("updated_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update device state sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update device state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DeviceRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "devices", id)
}

func scanDevice(row pgx.Row) (*domain.Device, error) {
	var device domain.Device
	if err := row.Scan(
		&device.ID,
		&device.MachineID,
		&device.DeviceTypeID,
		&device.Name,
		&device.State,
		&device.CreatedAt,
		&device.UpdatedAt,
		&device.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}

	return &device, nil
}

var _ port.DeviceRepository = (*DeviceRepository)(nil)
