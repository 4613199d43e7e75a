// file: model/token.go

package model

import "time"

// Names of the per-user token slots kept in the user directory.
const (
	AccessTokenName  = "AccessToken"
	RefreshTokenName = "RefreshToken"
)

// UserToken is a named authentication token persisted for a user.
// There is at most one value per (user, login provider, name).
type UserToken struct {
	UserID        string    `json:"user_id"`
	LoginProvider string    `json:"login_provider"`
	Name          string    `json:"name"`
	Value         string    `json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StoredAccessToken is the JSON payload kept in the AccessToken slot.
type StoredAccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is returned to clients on login and refresh.
type TokenPair struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
