package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/alvarohurtadobo/iot-backend/internal/core/domain"
	"github.com/alvarohurtadobo/iot-backend/internal/core/port"
)

// RoleService implements role CRUD.
type RoleService struct {
	roles port.RoleRepository
	now   func() time.Time
}

// NewRoleService constructs a RoleService instance.
func NewRoleService(roles port.RoleRepository) *RoleService {
	return &RoleService{roles: roles, now: time.Now}
}

// Create persists a new role.
func (s *RoleService) Create(ctx context.Context, name string, description *string) (*domain.Role, error) {
	now := s.now().UTC()
	role := domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	return &role, nil
}

// Get returns an active role by id.
func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	return s.roles.GetByID(ctx, id)
}

// List returns all active roles.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

// Update applies changes to an active role. Nil description leaves the
// current value untouched.
func (s *RoleService) Update(ctx context.Context, id string, name *string, description *string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		role.Name = *name
	}
	if description != nil {
		role.Description = description
	}
	role.UpdatedAt = s.now().UTC()

	if err := s.roles.Update(ctx, *role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return role, nil
}

// Delete soft-deletes a role.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	return s.roles.SoftDelete(ctx, id)
}
