package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/notesync/internal/client/storage"
)

// сессия одна на базу
var sessionKey = []byte("session")

func (s *Storage) SaveAuth(_ context.Context, auth *storage.AuthData) error {
	if auth == nil {
		return errors.New("auth data is nil")
	}
	raw, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Put(sessionKey, raw)
	})
}

// GetAuth возвращает storage.ErrAuthNotFound, если сессии нет
func (s *Storage) GetAuth(_ context.Context) (*storage.AuthData, error) {
	var auth storage.AuthData
	err := s.view(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketAuth).Get(sessionKey)
		if raw == nil {
			return storage.ErrAuthNotFound
		}
		return json.Unmarshal(raw, &auth)
	})
	if err != nil {
		return nil, err
	}
	return &auth, nil
}

func (s *Storage) DeleteAuth(_ context.Context) error {
	return s.update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		if b.Get(sessionKey) == nil {
			return storage.ErrAuthNotFound
		}
		return b.Delete(sessionKey)
	})
}

// IsAuthenticated: есть не гостевая сессия с refresh token.
// Истекший access token не считается выходом, его обновит auth.Service.
func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return !auth.Guest && auth.RefreshToken != "", nil
}
