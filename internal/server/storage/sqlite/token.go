package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/server/storage"
)

// SaveRefreshToken сохраняет выданный refresh token
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token.Token, token.UserID, token.ExpiresAt.UTC(), token.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken изымает токен в одной транзакции, поэтому при
// параллельном refresh одним токеном успешен только один запрос.
// Просроченный токен тоже удаляется.
func (s *Storage) ConsumeRefreshToken(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rt := &models.RefreshToken{}
	err = tx.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = ?`, token,
	).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	if err != nil {
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, storage.ErrTokenNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	if !now.Before(rt.ExpiresAt) {
		return nil, storage.ErrTokenExpired
	}
	return rt, nil
}

// DeleteUserTokens удаляет все refresh tokens пользователя
func (s *Storage) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	return s.deleteTokens(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
}

// DeleteExpiredTokens удаляет токены, истекшие к моменту now
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	return s.deleteTokens(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UTC())
}

func (s *Storage) deleteTokens(ctx context.Context, query string, arg any) (int, error) {
	res, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
