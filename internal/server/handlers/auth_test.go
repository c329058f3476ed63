package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/crypto"
	"github.com/iudanet/notesync/internal/models"
	"github.com/iudanet/notesync/internal/server/jwt"
	"github.com/iudanet/notesync/internal/server/storage"
	"github.com/iudanet/notesync/pkg/api"
)

const testPassword = "correct-horse-battery"

var errDB = errors.New("database is locked")

// authFixture держит пользователей и refresh tokens в map за moq моками
type authFixture struct {
	handler *AuthHandler
	users   *storage.UserStorageMock
	tokens  *storage.TokenStorageMock
	byName  map[string]*models.User
	issued  map[string]*models.RefreshToken
}

func newAuthFixture(t *testing.T, users ...*models.User) *authFixture {
	t.Helper()
	f := &authFixture{
		byName: make(map[string]*models.User),
		issued: make(map[string]*models.RefreshToken),
	}
	for _, u := range users {
		f.byName[u.Username] = u
	}

	f.users = &storage.UserStorageMock{
		CreateUserFunc: func(_ context.Context, user *models.User) error {
			if _, ok := f.byName[user.Username]; ok {
				return storage.ErrUserAlreadyExists
			}
			f.byName[user.Username] = user
			return nil
		},
		GetUserByUsernameFunc: func(_ context.Context, username string) (*models.User, error) {
			if u, ok := f.byName[username]; ok {
				return u, nil
			}
			return nil, storage.ErrUserNotFound
		},
		GetUserByIDFunc: func(_ context.Context, userID string) (*models.User, error) {
			for _, u := range f.byName {
				if u.ID == userID {
					return u, nil
				}
			}
			return nil, storage.ErrUserNotFound
		},
		TouchLoginFunc: func(context.Context, string, time.Time) error { return nil },
	}

	f.tokens = &storage.TokenStorageMock{
		SaveRefreshTokenFunc: func(_ context.Context, token *models.RefreshToken) error {
			f.issued[token.Token] = token
			return nil
		},
		ConsumeRefreshTokenFunc: func(_ context.Context, token string, now time.Time) (*models.RefreshToken, error) {
			rt, ok := f.issued[token]
			if !ok {
				return nil, storage.ErrTokenNotFound
			}
			delete(f.issued, token)
			if !now.Before(rt.ExpiresAt) {
				return nil, storage.ErrTokenExpired
			}
			return rt, nil
		},
		DeleteUserTokensFunc: func(_ context.Context, userID string) (int, error) {
			n := 0
			for k, rt := range f.issued {
				if rt.UserID == userID {
					delete(f.issued, k)
					n++
				}
			}
			return n, nil
		},
	}

	f.handler = NewAuthHandler(setupTestLogger(), f.users, f.tokens, newTestJWT())
	return f
}

func newTestJWT() *jwt.Service {
	return jwt.NewService("test-secret", 15*time.Minute, 30*24*time.Hour)
}

func newTestUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := crypto.HashPassword(testPassword)
	require.NoError(t, err)
	return &models.User{ID: "user123", Username: "testuser", PasswordHash: hash}
}

func postJSON(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
}

func refreshRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestAuthHandler_Register(t *testing.T) {
	f := newAuthFixture(t)

	w := httptest.NewRecorder()
	f.handler.Register(w, postJSON(t, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice_01",
		Password: testPassword,
	}))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.RegisterResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	user := f.byName["alice_01"]
	require.NotNil(t, user)
	assert.Equal(t, resp.UserID, user.ID)
	assert.NoError(t, crypto.VerifyPassword(testPassword, user.PasswordHash))
	assert.False(t, user.CreatedAt.IsZero())
}

func TestAuthHandler_Register_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		createErr error
		want      int
	}{
		{name: "invalid json", body: `{"username":`, want: http.StatusBadRequest},
		{name: "trailing data", body: `{"username":"alice","password":"` + testPassword + `"} {}`, want: http.StatusBadRequest},
		{name: "empty username", body: `{"username":"","password":"` + testPassword + `"}`, want: http.StatusBadRequest},
		{name: "short username", body: `{"username":"ab","password":"` + testPassword + `"}`, want: http.StatusBadRequest},
		{name: "long username", body: `{"username":"` + strings.Repeat("a", 33) + `","password":"` + testPassword + `"}`, want: http.StatusBadRequest},
		{name: "username with spaces", body: `{"username":"user name","password":"` + testPassword + `"}`, want: http.StatusBadRequest},
		{name: "empty password", body: `{"username":"alice","password":""}`, want: http.StatusBadRequest},
		{name: "short password", body: `{"username":"alice","password":"elevenchars"}`, want: http.StatusBadRequest},
		{name: "taken", body: `{"username":"testuser","password":"` + testPassword + `"}`, want: http.StatusConflict},
		{
			name:      "storage failure",
			body:      `{"username":"alice","password":"` + testPassword + `"}`,
			createErr: errDB,
			want:      http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, &models.User{ID: "u1", Username: "testuser"})
			if tt.createErr != nil {
				f.users.CreateUserFunc = func(context.Context, *models.User) error { return tt.createErr }
			}

			w := httptest.NewRecorder()
			f.handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body)))

			assert.Equal(t, tt.want, w.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	f := newAuthFixture(t, newTestUser(t))

	w := httptest.NewRecorder()
	f.handler.Login(w, postJSON(t, "/api/v1/auth/login", api.LoginRequest{
		Username: "testuser",
		Password: testPassword,
	}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "user123", resp.UserID)
	assert.Positive(t, resp.ExpiresIn)
	assert.Contains(t, f.issued, resp.RefreshToken)

	claims, err := newTestJWT().ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)

	require.Len(t, f.users.TouchLoginCalls(), 1)
	assert.Equal(t, "user123", f.users.TouchLoginCalls()[0].UserID)
}

func TestAuthHandler_Login_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		req   api.LoginRequest
		setup func(f *authFixture)
		want  int
	}{
		{name: "empty fields", req: api.LoginRequest{}, want: http.StatusBadRequest},
		{name: "unknown user", req: api.LoginRequest{Username: "nobody", Password: testPassword}, want: http.StatusUnauthorized},
		{name: "wrong password", req: api.LoginRequest{Username: "testuser", Password: "wrong-password-123"}, want: http.StatusUnauthorized},
		{
			name: "user lookup fails",
			req:  api.LoginRequest{Username: "testuser", Password: testPassword},
			setup: func(f *authFixture) {
				f.users.GetUserByUsernameFunc = func(context.Context, string) (*models.User, error) { return nil, errDB }
			},
			want: http.StatusInternalServerError,
		},
		{
			name: "token save fails",
			req:  api.LoginRequest{Username: "testuser", Password: testPassword},
			setup: func(f *authFixture) {
				f.tokens.SaveRefreshTokenFunc = func(context.Context, *models.RefreshToken) error { return errDB }
			},
			want: http.StatusInternalServerError,
		},
	}

	user := newTestUser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, user)
			if tt.setup != nil {
				tt.setup(f)
			}

			w := httptest.NewRecorder()
			f.handler.Login(w, postJSON(t, "/api/v1/auth/login", tt.req))

			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, f.users.TouchLoginCalls())
		})
	}
}

// Ошибка записи last_login не ломает вход
func TestAuthHandler_Login_TouchFails(t *testing.T) {
	f := newAuthFixture(t, newTestUser(t))
	f.users.TouchLoginFunc = func(context.Context, string, time.Time) error { return errDB }

	w := httptest.NewRecorder()
	f.handler.Login(w, postJSON(t, "/api/v1/auth/login", api.LoginRequest{
		Username: "testuser",
		Password: testPassword,
	}))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Refresh_Rotation(t *testing.T) {
	f := newAuthFixture(t, newTestUser(t))
	f.issued["first"] = &models.RefreshToken{
		Token:     "first",
		UserID:    "user123",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	w := httptest.NewRecorder()
	f.handler.Refresh(w, refreshRequest("Bearer first"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEqual(t, "first", resp.RefreshToken)
	assert.NotContains(t, f.issued, "first")
	assert.Contains(t, f.issued, resp.RefreshToken)

	// повторное использование изъятого токена
	w = httptest.NewRecorder()
	f.handler.Refresh(w, refreshRequest("Bearer first"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	f.handler.Refresh(w, refreshRequest("Bearer "+resp.RefreshToken))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Refresh_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		consumeErr error
		token      *models.RefreshToken
		want       int
	}{
		{name: "no header", want: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer unknown", want: http.StatusUnauthorized},
		{
			name:   "expired",
			header: "Bearer old",
			token:  &models.RefreshToken{Token: "old", UserID: "user123", ExpiresAt: time.Now().Add(-time.Hour)},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "user gone",
			header: "Bearer orphan",
			token:  &models.RefreshToken{Token: "orphan", UserID: "ghost", ExpiresAt: time.Now().Add(time.Hour)},
			want:   http.StatusUnauthorized,
		},
		{name: "storage failure", header: "Bearer any", consumeErr: errDB, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, &models.User{ID: "user123", Username: "testuser"})
			if tt.token != nil {
				f.issued[tt.token.Token] = tt.token
			}
			if tt.consumeErr != nil {
				f.tokens.ConsumeRefreshTokenFunc = func(context.Context, string, time.Time) (*models.RefreshToken, error) {
					return nil, tt.consumeErr
				}
			}

			w := httptest.NewRecorder()
			f.handler.Refresh(w, refreshRequest(tt.header))

			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, f.tokens.SaveRefreshTokenCalls())
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t, newTestUser(t))
	for _, token := range []string{"t1", "t2"} {
		f.issued[token] = &models.RefreshToken{Token: token, UserID: "user123"}
	}
	f.issued["other"] = &models.RefreshToken{Token: "other", UserID: "someone-else"}

	w := httptest.NewRecorder()
	f.handler.Logout(w, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), "user123"))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, f.issued, 1)
	assert.Contains(t, f.issued, "other")
}

func TestAuthHandler_Logout_Rejected(t *testing.T) {
	f := newAuthFixture(t)

	w := httptest.NewRecorder()
	f.handler.Logout(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.tokens.DeleteUserTokensCalls())

	f.tokens.DeleteUserTokensFunc = func(context.Context, string) (int, error) { return 0, errDB }
	w = httptest.NewRecorder()
	f.handler.Logout(w, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), "user123"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
