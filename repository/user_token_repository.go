// file: repository/user_token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"workforce-api/logger"

	"github.com/sirupsen/logrus"
)

// IUserTokenRepository persists named authentication tokens per user.
// Each (user, provider, name) holds a single value; writes overwrite it.
type IUserTokenRepository interface {
	GetToken(ctx context.Context, userID, provider, name string) (string, error)
	SetToken(ctx context.Context, userID, provider, name, value string) error
	RemoveToken(ctx context.Context, userID, provider, name string) error
}

// UserTokenRepository implements IUserTokenRepository.
type UserTokenRepository struct {
	DB *sql.DB
}

// NewUserTokenRepository creates a new UserTokenRepository.
func NewUserTokenRepository(db *sql.DB) *UserTokenRepository {
	return &UserTokenRepository{DB: db}
}

// GetToken returns ErrNotFound when the slot is empty.
func (r *UserTokenRepository) GetToken(ctx context.Context, userID, provider, name string) (string, error) {
	var value string
	query := `SELECT value FROM user_tokens WHERE user_id = $1 AND login_provider = $2 AND name = $3`
	err := r.DB.QueryRowContext(ctx, query, userID, provider, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"name":    name,
		}).Error("Failed to execute get user token query")
		return "", err
	}
	return value, nil
}

// SetToken upserts the slot.
func (r *UserTokenRepository) SetToken(ctx context.Context, userID, provider, name, value string) error {
	query := `
		INSERT INTO user_tokens (user_id, login_provider, name, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, login_provider, name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query, userID, provider, name, value, time.Now().UTC())
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"name":    name,
		}).Error("Failed to execute set user token query")
		return err
	}
	return nil
}

// RemoveToken deletes the slot. Removing an empty slot is not an error.
func (r *UserTokenRepository) RemoveToken(ctx context.Context, userID, provider, name string) error {
	query := `DELETE FROM user_tokens WHERE user_id = $1 AND login_provider = $2 AND name = $3`
	_, err := r.DB.ExecContext(ctx, query, userID, provider, name)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute remove user token query")
		return err
	}
	return nil
}
