package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users         *UserRepository
	Roles         *RoleRepository
	Audits        *LoginAuditRepository
	RevokedTokens *RevokedTokenRepository
	Businesses    *BusinessRepository
	Branches      *BranchRepository
	Machines      *MachineRepository
	DeviceTypes   *DeviceTypeRepository
	Devices       *DeviceRepository
	SensorTypes   *SensorTypeRepository
	Sensors       *SensorRepository
	Readings      *ReadingRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(pool),
		Roles:         NewRoleRepository(pool),
		Audits:        NewLoginAuditRepository(pool),
		RevokedTokens: NewRevokedTokenRepository(pool),
		Businesses:    NewBusinessRepository(pool),
		Branches:      NewBranchRepository(pool),
		Machines:      NewMachineRepository(pool),
		DeviceTypes:   NewDeviceTypeRepository(pool),
		Devices:       NewDeviceRepository(pool),
		SensorTypes:   NewSensorTypeRepository(pool),
		Sensors:       NewSensorRepository(pool),
		Readings:      NewReadingRepository(pool),
	}
}
