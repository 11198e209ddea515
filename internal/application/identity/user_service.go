package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/shared"
)

// UserService handles user management operations
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, logger: logger}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	email := identity.NormalizeEmail(input.Email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "A user with this email already exists")
	}

	user, err := identity.NewUser(email, input.DisplayName, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	info := ToUserInfo(user)
	return &info, nil
}

// List returns users
func (s *UserService) List(ctx context.Context, filter shared.Filter) ([]UserInfo, error) {
	users, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]UserInfo, 0, len(users))
	for i := range users {
		out = append(out, ToUserInfo(&users[i]))
	}
	return out, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// EnsureAdmin creates an admin account unless the email is already taken.
// It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.Create(ctx, CreateUserInput{
		Email:       email,
		DisplayName: "Administrator",
		Password:    password,
		Role:        identity.RoleAdmin,
	})
	if err != nil {
		if de, ok := shared.AsDomainError(err); ok && de.Code == shared.CodeAlreadyExists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
