package storage

import (
	"context"
	"time"
)

//go:generate moq -out auth_mock.go . AuthStorage

// AuthStorage defines interface for storing authentication data on client
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing the previous session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if a non-guest session with a refresh token exists
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the current client session.
// Guest сессия работает только локально: без токенов, без синхронизации.
type AuthData struct {
	Username     string `json:"username,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresAt срок действия access token (unix seconds)
	ExpiresAt int64 `json:"expires_at,omitempty"`
	Guest     bool  `json:"guest,omitempty"`
}

// AccessExpired сообщает, что access token истек (или истечет в пределах leeway)
func (a *AuthData) AccessExpired(now time.Time, leeway time.Duration) bool {
	return a.AccessToken == "" || !now.Add(leeway).Before(time.Unix(a.ExpiresAt, 0))
}
