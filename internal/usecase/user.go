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
	"github.com/alvarohurtadobo/iot-backend/internal/infra/security"
)

// ErrWeakPassword indicates the submitted password failed the policy.
var ErrWeakPassword = errors.New("weak password")

// ErrEmailTaken indicates another active account already uses the email.
var ErrEmailTaken = errors.New("email already registered")

// CreateUserInput carries the fields accepted on user creation.
type CreateUserInput struct {
	FirstName      string
	LastName       string
	Email          string
	Password       string
	ProfilePicture *string
	RoleID         string
	BusinessID     *string
	BranchID       *string
}

// UpdateUserInput carries the fields accepted on user update. Nil pointers
// leave the current value untouched.
type UpdateUserInput struct {
	FirstName      *string
	LastName       *string
	ProfilePicture *string
	RoleID         *string
	BusinessID     *string
	BranchID       *string
}

// UserService implements user CRUD on top of the user repository.
type UserService struct {
	users     port.UserRepository
	hasher    *security.PasswordHasher
	validator *security.PasswordValidator
	log       *zap.Logger
	now       func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(users port.UserRepository, hasher *security.PasswordHasher, validator *security.PasswordValidator, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		users:     users,
		hasher:    hasher,
		validator: validator,
		log:       log,
		now:       time.Now,
	}
}

// Create validates the password against policy, hashes it, and persists the
// user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if s.validator != nil {
		if err := s.validator.Validate(in.Password); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
		}
	}

	if existing, err := s.users.GetByEmail(ctx, in.Email); err == nil && !existing.IsDeleted() {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:             uuid.NewString(),
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		ProfilePicture: in.ProfilePicture,
		Email:          in.Email,
		PasswordHash:   hash,
		RoleID:         in.RoleID,
		BusinessID:     in.BusinessID,
		BranchID:       in.BranchID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Get returns an active user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns all active users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Update applies the supplied partial changes to an active user.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = in.ProfilePicture
	}
	if in.RoleID != nil {
		user.RoleID = *in.RoleID
	}
	if in.BusinessID != nil {
		user.BusinessID = in.BusinessID
	}
	if in.BranchID != nil {
		user.BranchID = in.BranchID
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, *user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// Delete soft-deletes a user. Already-deleted users report not found.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.SoftDelete(ctx, id)
}
