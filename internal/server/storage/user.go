package storage

import (
	"context"
	"time"

	"github.com/iudanet/notesync/internal/models"
)

//go:generate moq -out user_mock.go . UserStorage

// UserStorage хранит аккаунты
type UserStorage interface {
	// CreateUser возвращает ErrUserAlreadyExists, если username занят
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	// TouchLogin отмечает время последнего входа
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}
