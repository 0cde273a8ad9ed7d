package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

const defaultReadingLimit = 1000

// ReadingRepository implements port.ReadingRepository using PostgreSQL.
// Readings are append-only time-series rows; there is no update or delete.
type ReadingRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewReadingRepository wires a PostgreSQL-backed reading repository.
func NewReadingRepository(pool *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends one reading.
func (r *ReadingRepository) Insert(ctx context.Context, reading domain.Reading) error {
	sql, args, err := r.builder.Insert("time_data").
		Columns("id", "sensor_id", "value", "timestamp").
		Values(reading.ID, reading.SensorID, reading.Value, reading.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reading sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}

	return nil
}

// ListBySensor returns readings for the sensor within [from, to], newest
// first. Zero time bounds are not applied; limit defaults when non-positive.
func (r *ReadingRepository) ListBySensor(ctx context.Context, sensorID string, from, to time.Time, limit int) ([]domain.Reading, error) {
	if limit <= 0 {
		limit = defaultReadingLimit
	}

	query := r.builder.
		Select("id", "sensor_id", "value", "timestamp").
		From("time_data").
		Where(squirrel.Eq{"sensor_id": sensorID}).
		OrderBy("timestamp DESC").
		Limit(uint64(limit))

	if !from.IsZero() {
		query = query.Where(squirrel.GtOrEq{"timestamp": from.UTC()})
	}
	if !to.IsZero() {
		query = query.Where(squirrel.LtOrEq{"timestamp": to.UTC()})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list readings sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	var readings []domain.Reading
	for rows.Next() {
		var reading domain.Reading
		if err := rows.Scan(&reading.ID, &reading.SensorID, &reading.Value, &reading.Timestamp); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}

	return readings, rows.Err()
}

var _ port.ReadingRepository = (*ReadingRepository)(nil)
