package port

import (
	"context"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
//
// GetByEmail performs a case-sensitive exact match and does NOT filter on
// deleted_at: the auth flow needs to see soft-deleted rows to report them as
// disabled. List and Get filter soft-deleted rows.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) error
	SaveLoginState(ctx context.Context, user domain.User) error
	SoftDelete(ctx context.Context, id string) error
}

// RoleRepository exposes persistence behavior for roles.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role domain.Role) error
	SoftDelete(ctx context.Context, id string) error
}
