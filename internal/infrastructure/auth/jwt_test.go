package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staydesk/backend/internal/domain/identity"
	"github.com/staydesk/backend/internal/domain/shared"
	"github.com/staydesk/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: 15 * time.Minute,
		Issuer:     "staydesk-test",
	})
}

func newTestUser() *identity.User {
	return &identity.User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      "staff@example.com",
		Role:       identity.RoleStaff,
		Active:     true,
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	user := newTestUser()

	token, err := svc.Generate(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.ExpiresAt, 2*time.Second)

	claims, err := svc.Validate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "staff@example.com", claims.Email)
	assert.Equal(t, identity.RoleStaff, claims.Role)
	assert.Equal(t, token.ID, claims.ID)

	id, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestJWTService_Validate(t *testing.T) {
	t.Run("rejects expired tokens", func(t *testing.T) {
		svc := newTestJWTService()
		svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := svc.Generate(newTestUser())
		require.NoError(t, err)

		svc.now = time.Now
		_, err = svc.Validate(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects tokens signed with another secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret", Expiration: time.Minute, Issuer: "staydesk-test"})
		token, err := other.Generate(newTestUser())
		require.NoError(t, err)

		_, err = newTestJWTService().Validate(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a foreign issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Expiration: time.Minute, Issuer: "elsewhere"})
		token, err := other.Generate(newTestUser())
		require.NoError(t, err)

		_, err = newTestJWTService().Validate(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "x", Role: identity.RoleAdmin})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = newTestJWTService().Validate(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := newTestJWTService().Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_RemainingTTL(t *testing.T) {
	now := time.Now()
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}
	assert.InDelta(t, time.Minute.Seconds(), c.RemainingTTL(now).Seconds(), 1)

	expired := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
	assert.Equal(t, time.Duration(0), expired.RemainingTTL(now))
	assert.Equal(t, time.Duration(0), (&Claims{}).RemainingTTL(now))
}
