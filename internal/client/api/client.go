package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/notesync/pkg/api"
)

var (
	// ErrUnauthorized сервер ответил 401: нужна повторная авторизация
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetworkUnreachable сервер недоступен (offline, DNS, таймаут, обрыв соединения)
	ErrNetworkUnreachable = errors.New("network unreachable")
)

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap позволяет errors.Is(err, ErrUnauthorized) для 401
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

//go:generate moq -out client_mock.go . ClientAPI

// ClientAPI транспорт клиента к серверу синхронизации
type ClientAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error

	// SyncBegin отправляет полный инвентарь клиента и получает план
	SyncBegin(ctx context.Context, accessToken string, docs []api.Stub) (*api.BeginResponse, error)
	// SyncRequest запрашивает полные документы по stubs
	SyncRequest(ctx context.Context, accessToken string, docs []api.Stub) ([]api.Document, error)
	// SyncUpdate отправляет документы на сервер
	SyncUpdate(ctx context.Context, accessToken string, docs []api.Document) error

	// LiveURL адрес websocket live канала с токеном в query
	LiveURL(accessToken string) (string, error)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", refreshToken, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает все refresh tokens пользователя
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// SyncBegin POST /sync/begin
func (c *Client) SyncBegin(ctx context.Context, accessToken string, docs []api.Stub) (*api.BeginResponse, error) {
	if docs == nil {
		docs = []api.Stub{}
	}
	var resp api.BeginResponse
	err := c.doRequest(ctx, http.MethodPost, "/sync/begin", accessToken, api.BeginRequest{Docs: docs}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sync begin failed: %w", err)
	}
	return &resp, nil
}

// SyncRequest POST /sync/request
func (c *Client) SyncRequest(ctx context.Context, accessToken string, docs []api.Stub) ([]api.Document, error) {
	var resp []api.Document
	err := c.doRequest(ctx, http.MethodPost, "/sync/request", accessToken, api.DocsRequest{Docs: docs}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	return resp, nil
}

// SyncUpdate POST /sync/update
func (c *Client) SyncUpdate(ctx context.Context, accessToken string, docs []api.Document) error {
	err := c.doRequest(ctx, http.MethodPost, "/sync/update", accessToken, api.UpdateRequest{Docs: docs}, nil)
	if err != nil {
		return fmt.Errorf("sync update failed: %w", err)
	}
	return nil
}

// LiveURL переводит http(s) адрес сервера в ws(s)://.../sync/live?token=...
func (c *Client) LiveURL(accessToken string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/sync/live"
	u.RawQuery = url.Values{"token": {accessToken}}.Encode()
	return u.String(), nil
}

// doRequest выполняет HTTP запрос.
// Ошибки транспорта оборачиваются в ErrNetworkUnreachable, ответы вне 2xx в *StatusError.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// отмена вызывающим не является сетевой ошибкой
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", ErrNetworkUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrNetworkUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
			statusErr.Message = errResp.Message
			if statusErr.Message == "" {
				statusErr.Message = errResp.Error
			}
		} else {
			statusErr.Message = strings.TrimSpace(string(respBody))
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
