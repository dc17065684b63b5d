package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tapestore/storefront-service/internal/app/storefront/service"
	"tapestore/storefront-service/internal/app/storefront/session"
)

// AuthClient клиент для взаимодействия с Auth Service
// Витрина сама не проверяет пароли и не выпускает токены
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ session.Authenticator = (*AuthClient)(nil)

// NewAuthClient создает новый клиент для Auth Service
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AuthClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// authResponse - ответ Auth Service на вход и регистрацию
type authResponse struct {
	User struct {
		ID int64 `json:"id"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

// Login выполняет POST /auth/login
func (c *AuthClient) Login(ctx context.Context, creds session.Credentials) (*session.Identity, error) {
	return c.authenticate(ctx, "/auth/login", credentialsRequest{Email: creds.Email, Password: creds.Password})
}

// Register выполняет POST /auth/register
func (c *AuthClient) Register(ctx context.Context, creds session.Credentials) (*session.Identity, error) {
	return c.authenticate(ctx, "/auth/register", credentialsRequest{Email: creds.Email, Password: creds.Password, Name: creds.Name})
}

func (c *AuthClient) authenticate(ctx context.Context, path string, body credentialsRequest) (*session.Identity, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return nil, service.ErrInvalidCredentials
	case http.StatusConflict:
		return nil, service.ErrUserExists
	case http.StatusBadRequest:
		return nil, &service.FieldError{Field: "credentials", Reason: readErrorMessage(resp.Body)}
	default:
		return nil, fmt.Errorf("unexpected status code from auth service: %d", resp.StatusCode)
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.User.ID <= 0 || result.Tokens.AccessToken == "" {
		return nil, fmt.Errorf("auth service returned incomplete identity")
	}

	return &session.Identity{
		UserID:       result.User.ID,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, nil
}

// Logout выполняет POST /auth/logout с токеном пользователя
func (c *AuthClient) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code from auth service: %d", resp.StatusCode)
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return "rejected by auth service"
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Error != "" {
		return payload.Error
	}
	return "rejected by auth service"
}
