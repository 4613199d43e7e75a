package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"workforce-api/config"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const refreshTokenBytes = 32

// TokenService issues and validates bearer tokens and keeps the single
// access/refresh slot per user in the user directory.
type TokenService struct {
	cfg         config.JWTConfig
	userTokens  repository.IUserTokenRepository
	revocations RevocationStore
	clock       Clock
}

func NewTokenService(cfg config.JWTConfig, userTokens repository.IUserTokenRepository, revocations RevocationStore, clock Clock) *TokenService {
	if cfg.AccessTokenHours <= 0 {
		cfg.AccessTokenHours = 24
	}
	return &TokenService{
		cfg:         cfg,
		userTokens:  userTokens,
		revocations: revocations,
		clock:       clock,
	}
}

func (s *TokenService) key() []byte {
	return []byte(s.cfg.SecretKey)
}

// IssueAccessToken signs a new HS256 token for user and records it as the
// user's current access token. Persisting and tracking are best effort: a
// failure there is logged and the token is still returned.
func (s *TokenService) IssueAccessToken(ctx context.Context, user *model.User, roles []string) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(s.cfg.AccessTokenHours) * time.Hour)
	jti := uuid.NewString()

	claims := &model.AppClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.DisplayName,
		EmployeeCode: user.EmployeeCode,
		Roles:        roles,
		LegacyRoles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key())
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("Failed to sign JWT")
		return "", time.Time{}, fmt.Errorf("failed to sign token string: %w", err)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"jti":     jti,
	})

	if err := s.persistAccessToken(ctx, user.ID, signed, expiresAt); err != nil {
		log.WithError(err).Warn("Failed to persist access token, continuing without it")
	}

	if err := s.revocations.Track(ctx, user.ID, jti, expiresAt); err != nil {
		log.WithError(err).Warn("Failed to track issued token for bulk revocation")
	}

	return signed, expiresAt, nil
}

func (s *TokenService) persistAccessToken(ctx context.Context, userID, signed string, expiresAt time.Time) error {
	payload, err := json.Marshal(model.StoredAccessToken{Token: signed, ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("encode access token slot: %w", err)
	}
	return s.userTokens.SetToken(ctx, userID, s.cfg.LoginProvider, model.AccessTokenName, string(payload))
}

// IssueRefreshToken returns 32 random bytes, base64 encoded. The caller
// stores it with StoreRefreshToken.
func (s *TokenService) IssueRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// StoreRefreshToken overwrites the user's refresh slot.
func (s *TokenService) StoreRefreshToken(ctx context.Context, userID, token string) error {
	return s.userTokens.SetToken(ctx, userID, s.cfg.LoginProvider, model.RefreshTokenName, token)
}

// ValidateRefreshToken reports whether candidate equals the stored refresh
// token. Any lookup failure means "not valid".
func (s *TokenService) ValidateRefreshToken(ctx context.Context, userID, candidate string) bool {
	stored, err := s.userTokens.GetToken(ctx, userID, s.cfg.LoginProvider, model.RefreshTokenName)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to load refresh token")
		}
		return false
	}
	if stored == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// RevokeAll deletes the user's stored access and refresh tokens. It does
// not touch the JTI revocation set.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	log := logger.Log.WithField("user_id", userID)
	if _, ok := s.storedAccessToken(ctx, userID); ok {
		log.Info("Removing active access token")
	}

	var errs []error
	if err := s.userTokens.RemoveToken(ctx, userID, s.cfg.LoginProvider, model.AccessTokenName); err != nil {
		errs = append(errs, fmt.Errorf("remove access token: %w", err))
	}
	if err := s.userTokens.RemoveToken(ctx, userID, s.cfg.LoginProvider, model.RefreshTokenName); err != nil {
		errs = append(errs, fmt.Errorf("remove refresh token: %w", err))
	}
	return errors.Join(errs...)
}

// IsAccessTokenValid reports whether the user still has a stored, unexpired
// access token. This backs single-active-session semantics on top of the
// signature check.
func (s *TokenService) IsAccessTokenValid(ctx context.Context, userID string) bool {
	stored, ok := s.storedAccessToken(ctx, userID)
	if !ok {
		return false
	}
	return s.clock.Now().Before(stored.ExpiresAt)
}

// storedAccessToken treats a missing or malformed slot as absent.
func (s *TokenService) storedAccessToken(ctx context.Context, userID string) (*model.StoredAccessToken, bool) {
	raw, err := s.userTokens.GetToken(ctx, userID, s.cfg.LoginProvider, model.AccessTokenName)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to load access token")
		}
		return nil, false
	}

	var stored model.StoredAccessToken
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.Token == "" {
		logger.Log.WithField("user_id", userID).Warn("Stored access token payload is malformed, treating as absent")
		return nil, false
	}
	return &stored, true
}

// ValidateAccessToken checks signature, algorithm, issuer, audience and
// expiry, then rejects revoked JTIs. A revocation store failure rejects
// the token.
func (s *TokenService) ValidateAccessToken(ctx context.Context, raw string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if err := s.checkRevocation(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseExpiredAccessToken verifies the signature, issuer and audience of a
// token whose lifetime may have ended. Used by the refresh flow.
func (s *TokenService) ParseExpiredAccessToken(ctx context.Context, raw string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.cfg.Issuer || !audienceContains(claims.Audience, s.cfg.Audience) || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if err := s.checkRevocation(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// RevokeToken moves the token's JTI to the revoked set. Permanent.
func (s *TokenService) RevokeToken(ctx context.Context, claims *model.AppClaims) error {
	expiresAt := s.clock.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.revocations.Revoke(ctx, claims.ID, expiresAt)
}

func (s *TokenService) checkRevocation(ctx context.Context, claims *model.AppClaims) error {
	if claims.ID == "" {
		return ErrInvalidToken
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.Log.WithError(err).WithField("jti", claims.ID).Error("Revocation lookup failed, rejecting token")
		return ErrInvalidToken
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *TokenService) keyFunc(*jwt.Token) (interface{}, error) {
	return s.key(), nil
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
