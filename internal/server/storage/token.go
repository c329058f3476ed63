package storage

import (
	"context"
	"time"

	"github.com/iudanet/notesync/internal/models"
)

//go:generate moq -out token_mock.go . TokenStorage

// TokenStorage хранит refresh tokens. Токен одноразовый: при обновлении
// сессии он изымается через ConsumeRefreshToken и заменяется новым.
type TokenStorage interface {
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// ConsumeRefreshToken удаляет токен и возвращает его запись.
	// ErrTokenNotFound, если токена нет (или он уже использован),
	// ErrTokenExpired, если срок истек к моменту now.
	ConsumeRefreshToken(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	// DeleteUserTokens завершает все сессии пользователя
	DeleteUserTokens(ctx context.Context, userID string) (int, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}
