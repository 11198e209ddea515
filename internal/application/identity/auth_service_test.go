package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/infrastructure/config"
	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/auth"
)

const testPassword = "correct-horse"

func createAuthService(repo *MockUserRepository) (*AuthService, *auth.JWTService, *auth.InMemoryTokenBlacklist) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-that-is-long-enough",
		Expiration: time.Hour,
		Issuer:     "staydesk-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	return NewAuthService(repo, jwtService, blacklist, nil), jwtService, blacklist
}

func createTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("asha@example.com", "Asha", testPassword, identity.RoleStaff)
	require.NoError(t, err)
	return user
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc, jwtService, _ := createAuthService(repo)
	user := createTestUser(t)

	repo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)
	repo.On("Save", ctx, user).Return(nil)

	result, err := svc.Login(ctx, LoginInput{Email: "  Asha@Example.com ", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, identity.RoleStaff, result.User.Role)
	require.NotNil(t, user.LastLoginAt)

	claims, err := jwtService.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	repo.AssertExpectations(t)
}

func TestAuthService_Login_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := createAuthService(repo)
		repo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: testPassword})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := createAuthService(repo)
		repo.On("FindByEmail", ctx, "asha@example.com").Return(createTestUser(t), nil)

		_, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("deactivated account", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := createAuthService(repo)
		user := createTestUser(t)
		user.Deactivate()
		repo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)

		_, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: testPassword})
		de, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, CodeAccountDeactivated, de.Code)
	})

	t.Run("repository failure passes through", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _, _ := createAuthService(repo)
		boom := errors.New("db down")
		repo.On("FindByEmail", ctx, "asha@example.com").Return(nil, boom)

		_, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: testPassword})
		assert.ErrorIs(t, err, boom)
	})
}

func TestAuthService_Login_SaveFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc, _, _ := createAuthService(repo)
	user := createTestUser(t)
	repo.On("FindByEmail", ctx, "asha@example.com").Return(user, nil)
	repo.On("Save", ctx, user).Return(errors.New("write failed"))

	result, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc, _, blacklist := createAuthService(repo)

	t.Run("revokes the token id", func(t *testing.T) {
		err := svc.Logout(ctx, LogoutInput{
			UserID:    uuid.New(),
			TokenJTI:  "jti-1",
			ExpiresAt: time.Now().Add(30 * time.Minute),
		})
		require.NoError(t, err)
		revoked, err := blacklist.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired token is not stored", func(t *testing.T) {
		err := svc.Logout(ctx, LogoutInput{
			UserID:    uuid.New(),
			TokenJTI:  "jti-2",
			ExpiresAt: time.Now().Add(-time.Minute),
		})
		require.NoError(t, err)
		revoked, _ := blacklist.IsRevoked(ctx, "jti-2")
		assert.False(t, revoked)
	})

	t.Run("missing token id is a no-op", func(t *testing.T) {
		assert.NoError(t, svc.Logout(ctx, LogoutInput{UserID: uuid.New()}))
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc, _, _ := createAuthService(repo)
	user := createTestUser(t)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)

	info, err := svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", info.Email)
	assert.Equal(t, "Asha", info.DisplayName)

	missing := uuid.New()
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	_, err = svc.GetCurrentUser(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
