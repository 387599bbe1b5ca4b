package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warrantyhub/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		SessionID:   uuid.New(),
		AdminID:     uuid.New(),
		Username:    "alice",
		Role:        "admin",
		Permissions: []string{"dashboard.view", "products.view", "products.create"},
	}
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                "test-secret",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	}

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte(cfg.Secret), svc.secret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.GetAccessTokenExpiration())
	assert.Equal(t, cfg.Issuer, svc.issuer)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newTestJWTService()

	t.Run("defaults to configured expiration", func(t *testing.T) {
		before := time.Now()
		token, err := svc.GenerateAccessToken(newTestInput())

		require.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, "Bearer", token.TokenType)
		assert.WithinDuration(t, before.Add(15*time.Minute), token.ExpiresAt, 5*time.Second)
	})

	t.Run("follows session window", func(t *testing.T) {
		input := newTestInput()
		input.IssuedAt = time.Now().Truncate(time.Second)
		input.ExpiresAt = input.IssuedAt.Add(24 * time.Hour)

		token, err := svc.GenerateAccessToken(input)
		require.NoError(t, err)
		assert.True(t, input.ExpiresAt.Equal(token.ExpiresAt))

		claims, err := svc.ValidateAccessToken(token.AccessToken)
		require.NoError(t, err)
		assert.True(t, input.ExpiresAt.Equal(claims.ExpiresAt.Time))
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		input := newTestInput()
		input.IssuedAt = time.Now()
		input.ExpiresAt = input.IssuedAt.Add(-time.Minute)

		_, err := svc.GenerateAccessToken(input)
		assert.ErrorIs(t, err, ErrInvalidTokenWindow)
	})
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, input.SessionID.String(), claims.SessionID)
	assert.Equal(t, input.AdminID.String(), claims.AdminID)
	assert.Equal(t, input.Username, claims.Username)
	assert.Equal(t, input.Role, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, input.Permissions, claims.Permissions)

	sessionID, err := claims.GetSessionUUID()
	require.NoError(t, err)
	assert.Equal(t, input.SessionID, sessionID)
	adminID, err := claims.GetAdminUUID()
	require.NoError(t, err)
	assert.Equal(t, input.AdminID, adminID)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	input.IssuedAt = time.Now().Add(-2 * time.Hour)
	input.ExpiresAt = time.Now().Add(-time.Hour)

	token, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token.AccessToken)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("invalid-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := newTestJWTService().GenerateAccessToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
	})
	_, err = other.ValidateAccessToken(token.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_MissingClaims(t *testing.T) {
	svc := newTestJWTService()
	now := time.Now()

	sign := func(c *Claims) string {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
		c.IssuedAt = jwt.NewNumericDate(now)
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(svc.secret)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		claims *Claims
		want   error
	}{
		{"missing session", &Claims{AdminID: uuid.NewString(), TokenType: TokenTypeAccess}, ErrMissingSessionID},
		{"missing admin", &Claims{SessionID: uuid.NewString(), TokenType: TokenTypeAccess}, ErrMissingAdminID},
		{"wrong type", &Claims{SessionID: uuid.NewString(), AdminID: uuid.NewString(), TokenType: "refresh"}, ErrInvalidTokenType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(sign(tt.claims))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClaims_Permissions(t *testing.T) {
	c := &Claims{Permissions: []string{"products.view", "warranties.view"}}

	assert.True(t, c.HasPermission("products.view"))
	assert.False(t, c.HasPermission("admins.view"))
	assert.True(t, c.HasAnyPermission("admins.view", "warranties.view"))
	assert.False(t, c.HasAnyPermission())
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	c := &Claims{}
	assert.Zero(t, c.GetRemainingTTL())
	assert.True(t, c.GetIssuedAtTime().IsZero())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Zero(t, c.GetRemainingTTL())

	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	assert.InDelta(t, time.Hour.Seconds(), c.GetRemainingTTL().Seconds(), 5)
}
