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

// BusinessRepository implements port.BusinessRepository using PostgreSQL.
type BusinessRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewBusinessRepository wires a PostgreSQL-backed business repository.
func NewBusinessRepository(pool *pgxpool.Pool) *BusinessRepository {
	return &BusinessRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BusinessRepository) Create(ctx context.Context, business domain.Business) error {
	sql, args, err := r.builder.Insert("businesses").
		Columns("id", "name", "created_at", "updated_at", "deleted_at").
		Values(business.ID, business.Name, business.CreatedAt, business.UpdatedAt, business.DeletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert business sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert business: %w", err)
	}

	return nil
}

func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "created_at", "updated_at", "deleted_at").
		From("businesses").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select business sql: %w", err)
	}

	var business domain.Business
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&business.ID, &business.Name, &business.CreatedAt, &business.UpdatedAt, &business.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}

	return &business, nil
}

func (r *BusinessRepository) List(ctx context.Context) ([]domain.Business, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "created_at", "updated_at", "deleted_at").
		From("businesses").
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list businesses sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		var business domain.Business
		if err := rows.Scan(&business.ID, &business.Name, &business.CreatedAt, &business.UpdatedAt, &business.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		businesses = append(businesses, business)
	}

	return businesses, rows.Err()
}

func (r *BusinessRepository) Update(ctx context.Context, business domain.Business) error {
	sql, args, err := r.builder.Update("businesses").
		Set("name", business.Name).
		Set("updated_at", business.UpdatedAt).
		Where(squirrel.Eq{"id": business.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update business sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *BusinessRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "businesses", id)
}

// BranchRepository implements port.BranchRepository using PostgreSQL.
type BranchRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewBranchRepository wires a PostgreSQL-backed branch repository.
func NewBranchRepository(pool *pgxpool.Pool) *BranchRepository {
	return &BranchRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var branchColumns = []string{"id", "business_id", "name", "address", "representative_id", "created_at", "updated_at", "deleted_at"}

func (r *BranchRepository) Create(ctx context.Context, branch domain.Branch) error {
	sql, args, err := r.builder.Insert("branches").
		Columns(branchColumns...).
		Values(
			branch.ID,
			branch.BusinessID,
			branch.Name,
			branch.Address,
			branch.RepresentativeID,
			branch.CreatedAt,
			branch.UpdatedAt,
			branch.DeletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert branch sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}

	return nil
}

func (r *BranchRepository) GetByID(ctx context.Context, id string) (*domain.Branch, error) {
	stmt, args, err := r.builder.
		Select(branchColumns...).
		From("branches").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select branch sql: %w", err)
	}

	return scanBranch(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *BranchRepository) ListByBusiness(ctx context.Context, businessID string) ([]domain.Branch, error) {
	stmt, args, err := r.builder.
		Select(branchColumns...).
		From("branches").
		Where(squirrel.Eq{"business_id": businessID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list branches sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, *branch)
	}

	return branches, rows.Err()
}

func (r *BranchRepository) Update(ctx context.Context, branch domain.Branch) error {
	sql, args, err := r.builder.Update("branches").
		Set("name", branch.Name).
		Set("address", branch.Address).
		Set("representative_id", branch.RepresentativeID).
		Set("updated_at", branch.UpdatedAt).
		Where(squirrel.Eq{"id": branch.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update branch sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *BranchRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "branches", id)
}

func scanBranch(row pgx.Row) (*domain.Branch, error) {
	var branch domain.Branch
	if err := row.Scan(
		&branch.ID,
		&branch.BusinessID,
		&branch.Name,
		&branch.Address,
		&branch.RepresentativeID,
		&branch.CreatedAt,
		&branch.UpdatedAt,
		&branch.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan branch: %w", err)
	}

	return &branch, nil
}

// MachineRepository implements port.MachineRepository using PostgreSQL.
type MachineRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMachineRepository wires a PostgreSQL-backed machine repository.
func NewMachineRepository(pool *pgxpool.Pool) *MachineRepository {
	return &MachineRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var machineColumns = []string{"id", "branch_id", "name", "created_at", "updated_at", "deleted_at"}

func (r *MachineRepository) Create(ctx context.Context, machine domain.Machine) error {
	sql, args, err := r.builder.Insert("machines").
		Columns(machineColumns...).
		Values(machine.ID, machine.BranchID, machine.Name, machine.CreatedAt, machine.UpdatedAt, machine.DeletedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert machine sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert machine: %w", err)
	}

	return nil
}

func (r *MachineRepository) GetByID(ctx context.Context, id string) (*domain.Machine, error) {
	stmt, args, err := r.builder.
		Select(machineColumns...).
		From("machines").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select machine sql: %w", err)
	}

	var machine domain.Machine
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&machine.ID, &machine.BranchID, &machine.Name, &machine.CreatedAt, &machine.UpdatedAt, &machine.DeletedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan machine: %w", err)
	}

	return &machine, nil
}

func (r *MachineRepository) ListByBranch(ctx context.Context, branchID string) ([]domain.Machine, error) {
	stmt, args, err := r.builder.
		Select(machineColumns...).
		From("machines").
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list machines sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}
	defer rows.Close()

	var machines []domain.Machine
	for rows.Next() {
		var machine domain.Machine
		if err := rows.Scan(&machine.ID, &machine.BranchID, &machine.Name, &machine.CreatedAt, &machine.UpdatedAt, &machine.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, machine)
	}

	return machines, rows.Err()
}

func (r *MachineRepository) Update(ctx context.Context, machine domain.Machine) error {
	sql, args, err := r.builder.Update("machines").
		Set("name", machine.Name).
		Set("branch_id", machine.BranchID).
		Set("updated_at", machine.UpdatedAt).
		Where(squirrel.Eq{"id": machine.ID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update machine sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *MachineRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.exec, r.builder, "machines", id)
}

// softDelete stamps deleted_at on an active row of the supplied table.
func softDelete(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table, id string) error {
	now := time.Now().UTC()
	sql, args, err := builder.Update(table).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete %s sql: %w", table, err)
	}

	tag, err := exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var (
	_ port.BusinessRepository = (*BusinessRepository)(nil)
	_ port.BranchRepository   = (*BranchRepository)(nil)
	_ port.MachineRepository  = (*MachineRepository)(nil)
)
