package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/shared"
)

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with a normalized email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		repo.On("ExistsByEmail", ctx, "owner@example.com").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil)

		info, err := svc.Create(ctx, CreateUserInput{
			Email:    "Owner@Example.com",
			Password: "long-enough",
			Role:     identity.RoleOwner,
		})
		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", info.Email)
		assert.Equal(t, "owner@example.com", info.DisplayName)
		assert.True(t, info.Active)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		repo.On("ExistsByEmail", ctx, "owner@example.com").Return(true, nil)

		_, err := svc.Create(ctx, CreateUserInput{Email: "owner@example.com", Password: "long-enough", Role: identity.RoleOwner})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("short password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		repo.On("ExistsByEmail", ctx, "staff@example.com").Return(false, nil)

		_, err := svc.Create(ctx, CreateUserInput{Email: "staff@example.com", Password: "short", Role: identity.RoleStaff})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when missing", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		repo.On("ExistsByEmail", ctx, "admin@example.com").Return(false, nil)
		repo.On("Save", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.Role == identity.RoleAdmin
		})).Return(nil)

		created, err := svc.EnsureAdmin(ctx, "admin@example.com", "admin-password")
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("keeps an existing account", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, nil)
		repo.On("ExistsByEmail", ctx, "admin@example.com").Return(true, nil)

		created, err := svc.EnsureAdmin(ctx, "admin@example.com", "admin-password")
		require.NoError(t, err)
		assert.False(t, created)
	})
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, nil)
	u1, err := identity.NewUser("a@example.com", "A", "password-1", identity.RoleAdmin)
	require.NoError(t, err)
	u2, err := identity.NewUser("b@example.com", "B", "password-2", identity.RoleStaff)
	require.NoError(t, err)
	repo.On("FindAll", ctx, shared.Filter{}).Return([]identity.User{*u1, *u2}, nil)

	users, err := svc.List(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@example.com", users[1].Email)
}
