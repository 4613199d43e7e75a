package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService runs the login, refresh and logout flows on top of the
// user directory, the TokenService and the revocation store.
type AuthService struct {
	users       repository.IUserRepository
	tokens      *TokenService
	revocations RevocationStore
}

func NewAuthService(users repository.IUserRepository, tokens *TokenService, revocations RevocationStore) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Login verifies credentials and issues a fresh access/refresh pair.
// The new refresh token replaces any previous one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.WithField("user_id", user.ID).Warn("Login rejected: wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	return pair, nil
}

// Refresh exchanges a (possibly expired) access token plus the matching
// refresh token for a new pair. The old access token is revoked.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.tokens.ParseExpiredAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if !s.tokens.ValidateRefreshToken(ctx, claims.Subject, refreshToken) {
		logger.Log.WithField("user_id", claims.Subject).Warn("Refresh rejected: refresh token mismatch")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.tokens.RevokeToken(ctx, claims); err != nil {
		return nil, fmt.Errorf("revoke previous token: %w", err)
	}

	return s.issuePair(ctx, user)
}

// Logout revokes the presented token and clears the user's stored tokens.
func (s *AuthService) Logout(ctx context.Context, claims *model.AppClaims) error {
	if err := s.tokens.RevokeToken(ctx, claims); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if err := s.tokens.RevokeAll(ctx, claims.Subject); err != nil {
		logger.Log.WithError(err).WithField("user_id", claims.Subject).Warn("Failed to clear stored tokens on logout")
	}
	logger.Log.WithField("user_id", claims.Subject).Info("User logged out")
	return nil
}

// LogoutAll ends every session of userID, e.g. after a password change.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.revocations.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("clear stored tokens: %w", err)
	}
	logger.Log.WithField("user_id", userID).Info("All sessions revoked")
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	access, expiresAt, err := s.tokens.IssueAccessToken(ctx, user, roles)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.StoreRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &model.TokenPair{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}
