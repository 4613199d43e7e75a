package service

import (
	"context"
	"testing"
	"time"
	"workforce-api/model"
	"workforce-api/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	auth        *AuthService
	users       *UserService
	tokens      *TokenService
	revocations *MemoryRevocationStore
	clock       *fakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock()
	revocations := NewMemoryRevocationStore()
	tokens := NewTokenService(testJWTConfig(), store.UserTokens(), revocations, clock)
	auth := NewAuthService(store.Users(), tokens, revocations)
	return &authFixture{
		auth:        auth,
		users:       NewUserService(store.Users(), auth),
		tokens:      tokens,
		revocations: revocations,
		clock:       clock,
	}
}

func (f *authFixture) createUser(t *testing.T, email string, roles ...string) *model.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{model.RoleEmployee}
	}
	user, err := f.users.CreateUser(context.Background(), email, "Test User", "", "correct-horse", roles)
	require.NoError(t, err)
	return user
}

func TestAuthService_HashPassword(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := f.auth.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", hash)
	assert.True(t, f.auth.CheckPasswordHash("correct-horse", hash))
	assert.False(t, f.auth.CheckPasswordHash("wrong", hash))
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "ada@example.com", model.RoleManager)

	t.Run("success", func(t *testing.T) {
		pair, err := f.auth.Login(ctx, " ADA@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, pair.UserID)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := f.tokens.ValidateAccessToken(ctx, pair.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.HasRole(model.RoleManager))
		assert.True(t, f.tokens.IsAccessTokenValid(ctx, user.ID))
		assert.True(t, f.tokens.ValidateRefreshToken(ctx, user.ID, pair.RefreshToken))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "ada@example.com", "nope-nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "ghost@example.com", "correct-horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.True(t, IsRejection(err))
	})
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.createUser(t, "ada@example.com")

	pair, err := f.auth.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	oldClaims, err := f.tokens.ValidateAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	next, err := f.auth.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	revoked, _ := f.revocations.IsRevoked(ctx, oldClaims.ID)
	assert.True(t, revoked, "the exchanged access token is revoked")

	_, err = f.auth.Refresh(ctx, pair.AccessToken, next.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked, "an access token can be exchanged once")

	_, err = f.auth.Refresh(ctx, next.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old refresh token is gone")

	_, err = f.auth.Refresh(ctx, "garbage", next.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_LogoutRevokesPresentedToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "ada@example.com")

	pair, err := f.auth.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	claims, err := f.tokens.ValidateAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims))

	_, err = f.tokens.ValidateAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.False(t, f.tokens.IsAccessTokenValid(ctx, user.ID))
	assert.False(t, f.tokens.ValidateRefreshToken(ctx, user.ID, pair.RefreshToken))
}

func TestAuthService_LogoutAllRevokesEveryTrackedToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "ada@example.com")

	first, err := f.auth.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	second, err := f.auth.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, 2, f.revocations.Tracked(user.ID))

	require.NoError(t, f.auth.LogoutAll(ctx, user.ID))

	for _, tok := range []string{first.AccessToken, second.AccessToken} {
		_, err := f.tokens.ValidateAccessToken(ctx, tok)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	}
	assert.Zero(t, f.revocations.Tracked(user.ID))
}
