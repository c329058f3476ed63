package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/storage"
	clientsync "github.com/iudanet/notesync/internal/client/sync"
	"github.com/iudanet/notesync/internal/validation"
	pkgapi "github.com/iudanet/notesync/pkg/api"
)

// refreshLeeway access token обновляется заранее, чтобы не истечь посреди синхронизации
const refreshLeeway = 30 * time.Second

var (
	// ErrOtherAccount локальная база уже привязана к другому пользователю
	ErrOtherAccount = errors.New("local database belongs to another account")
	// ErrAlreadyLoggedIn гостевой режим недоступен при активной сессии
	ErrAlreadyLoggedIn = errors.New("already logged in, logout first")
)

// Service предоставляет функции авторизации и хранит сессию клиента
type Service struct {
	apiClient api.ClientAPI
	store     storage.AuthStorage
	logger    *slog.Logger
	now       func() time.Time
	// mu сериализует обновление токенов
	mu sync.Mutex
}

var _ clientsync.Session = (*Service)(nil)

// NewService создает новый сервис авторизации
func NewService(apiClient api.ClientAPI, store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Register регистрирует нового пользователя и сразу выполняет вход
func (s *Service) Register(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}
	if err := s.checkAccount(ctx, ""); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", resp.UserID))

	return s.Login(ctx, username, password)
}

// Login выполняет аутентификацию и сохраняет токены.
// Гостевая сессия заменяется: локальные документы уйдут в аккаунт при первой синхронизации.
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := s.checkAccount(ctx, resp.UserID); err != nil {
		return nil, err
	}

	auth := &storage.AuthData{
		Username:     username,
		UserID:       resp.UserID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	return auth, nil
}

// Guest включает локальный режим без аккаунта
func (s *Service) Guest(ctx context.Context) error {
	auth, err := s.store.GetAuth(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
	case err != nil:
		return fmt.Errorf("failed to read auth data: %w", err)
	case !auth.Guest:
		return ErrAlreadyLoggedIn
	default:
		return nil
	}

	if err := s.store.SaveAuth(ctx, &storage.AuthData{Guest: true}); err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}
	return nil
}

// Logout выполняет выход из системы
// Удаляет локальные данные авторизации и уведомляет сервер (best effort)
func (s *Service) Logout(ctx context.Context) error {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read auth data: %w", err)
	}

	if !auth.Guest && auth.AccessToken != "" {
		if err := s.apiClient.Logout(ctx, auth.AccessToken); err != nil {
			// сервер недоступен или токен уже истек: локальный выход важнее
			s.logger.WarnContext(ctx, "Failed to logout on server", slog.Any("error", err))
		}
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}
	return nil
}

// Current возвращает текущую сессию
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	return s.store.GetAuth(ctx)
}

// IsGuest сообщает, что синхронизация недоступна: гостевая сессия или вход не выполнен
func (s *Service) IsGuest(ctx context.Context) (bool, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return true, nil
		}
		return false, err
	}
	return auth.Guest, nil
}

// AccessToken возвращает действующий access token, обновляя его по refresh token.
// Отказ в обновлении возвращается как api.ErrUnauthorized.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return "", fmt.Errorf("not logged in: %w", api.ErrUnauthorized)
		}
		return "", fmt.Errorf("failed to read auth data: %w", err)
	}
	if auth.Guest {
		return "", clientsync.ErrGuestSession
	}
	if !auth.AccessExpired(s.now(), refreshLeeway) {
		return auth.AccessToken, nil
	}
	if auth.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token: %w", api.ErrUnauthorized)
	}

	s.logger.DebugContext(ctx, "Refreshing access token", slog.String("username", auth.Username))
	resp, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	auth.AccessToken = resp.AccessToken
	auth.RefreshToken = resp.RefreshToken
	auth.ExpiresAt = s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix()
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return "", fmt.Errorf("failed to save refreshed tokens: %w", err)
	}

	return auth.AccessToken, nil
}

// checkAccount запрещает привязать базу к другому аккаунту.
// userID пустой, если он еще неизвестен (регистрация).
func (s *Service) checkAccount(ctx context.Context, userID string) error {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read auth data: %w", err)
	}
	if auth.Guest || auth.UserID == "" {
		return nil
	}
	if userID == "" || auth.UserID != userID {
		return ErrOtherAccount
	}
	return nil
}
