package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/notesync/internal/crypto"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/server/jwt"
	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/internal/validation"
	"github.com/iudanet/notesync/pkg/api"
)

// dummyHash сверяется при входе под несуществующим именем,
// чтобы время ответа не выдавало наличие аккаунта
var dummyHash = sync.OnceValue(func() string {
	hash, _ := crypto.HashPassword("notesync-dummy-password")
	return hash
})

// AuthHandler обслуживает /api/v1/auth/*
type AuthHandler struct {
	logger *slog.Logger
	users  storage.UserStorage
	tokens storage.TokenStorage
	jwt    *jwt.Service
}

func NewAuthHandler(logger *slog.Logger, users storage.UserStorage, tokens storage.TokenStorage, jwtService *jwt.Service) *AuthHandler {
	return &AuthHandler{logger: logger, users: users, tokens: tokens, jwt: jwtService}
}

// Register: POST /api/v1/auth/register. Токены не выдает, после регистрации клиент входит сам.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "bad register request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	for _, err := range []error{validation.ValidateUsername(req.Username), validation.ValidatePassword(req.Password)} {
		if err != nil {
			sendError(w, h.logger, err.Error(), http.StatusBadRequest)
			return
		}
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		serverError(w, r, h.logger, "hash password", err)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	switch err := h.users.CreateUser(ctx, user); {
	case errors.Is(err, storage.ErrUserAlreadyExists):
		sendError(w, h.logger, "username already taken", http.StatusConflict)
		return
	case err != nil:
		serverError(w, r, h.logger, "create user", err)
		return
	}

	h.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))
	sendJSON(w, h.logger, api.RegisterResponse{UserID: user.ID, Message: "registered"}, http.StatusCreated)
}

// Login: POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "bad login request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		sendError(w, h.logger, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		_ = crypto.VerifyPassword(req.Password, dummyHash())
		h.logger.WarnContext(ctx, "login for unknown user", slog.String("username", req.Username))
		sendError(w, h.logger, "invalid credentials", http.StatusUnauthorized)
		return
	case err != nil:
		serverError(w, r, h.logger, "get user", err)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		h.logger.WarnContext(ctx, "wrong password", slog.String("user_id", user.ID))
		sendError(w, h.logger, "invalid credentials", http.StatusUnauthorized)
		return
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		serverError(w, r, h.logger, "issue tokens", err)
		return
	}

	// last_login не критичен для входа
	if err := h.users.TouchLogin(ctx, user.ID, time.Now()); err != nil {
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	sendJSON(w, h.logger, resp, http.StatusOK)
}

// Refresh: POST /api/v1/auth/refresh с "Authorization: Bearer <refresh token>".
// Токен одноразовый, взамен выдается новая пара.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := bearerToken(r)
	if !ok {
		sendError(w, h.logger, "refresh token is required", http.StatusUnauthorized)
		return
	}

	stored, err := h.tokens.ConsumeRefreshToken(ctx, token, time.Now())
	switch {
	case errors.Is(err, storage.ErrTokenNotFound):
		h.logger.WarnContext(ctx, "unknown or reused refresh token")
		sendError(w, h.logger, "invalid refresh token", http.StatusUnauthorized)
		return
	case errors.Is(err, storage.ErrTokenExpired):
		sendError(w, h.logger, "refresh token expired", http.StatusUnauthorized)
		return
	case err != nil:
		serverError(w, r, h.logger, "consume refresh token", err)
		return
	}

	user, err := h.users.GetUserByID(ctx, stored.UserID)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		sendError(w, h.logger, "invalid refresh token", http.StatusUnauthorized)
		return
	case err != nil:
		serverError(w, r, h.logger, "get user", err)
		return
	}

	resp, err := h.issueTokens(r, user)
	if err != nil {
		serverError(w, r, h.logger, "issue tokens", err)
		return
	}

	h.logger.DebugContext(ctx, "session refreshed", slog.String("user_id", user.ID))
	sendJSON(w, h.logger, resp, http.StatusOK)
}

// Logout: POST /api/v1/auth/logout за AuthMiddleware, завершает все сессии пользователя
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	n, err := h.tokens.DeleteUserTokens(ctx, userID)
	if err != nil {
		serverError(w, r, h.logger, "delete user tokens", err)
		return
	}

	h.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID), slog.Int("sessions", n))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) issueTokens(r *http.Request, user *models.User) (*api.TokenResponse, error) {
	access, expiresIn, err := h.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refresh, expiresAt, err := h.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	err = h.tokens.SaveRefreshToken(r.Context(), &models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.ID,
		ExpiresIn:    expiresIn,
	}, nil
}

// bearerToken извлекает токен из "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
