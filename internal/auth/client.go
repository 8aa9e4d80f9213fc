package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	app_errors "github.com/ConcealedGem/versa-chat-view/internal/errors"
	"github.com/ConcealedGem/versa-chat-view/internal/repository"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful login stores.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// UnmarshalJSON accepts user_id as a string or a number.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw struct {
		Token    string          `json:"token"`
		UserID   json.RawMessage `json:"user_id"`
		Username string          `json:"username"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Token = raw.Token
	s.Username = raw.Username
	s.UserID = ""
	if id := bytes.TrimSpace(raw.UserID); len(id) > 0 && !bytes.Equal(id, []byte("null")) {
		if unquoted, err := strconv.Unquote(string(id)); err == nil {
			s.UserID = unquoted
		} else {
			s.UserID = string(id)
		}
	}
	return nil
}

// Client logs in against the agent backend and keeps the resulting
// credentials in the persisted client storage.
type Client struct {
	baseURL string
	http    *http.Client
	storage repository.Storage
}

func NewClient(baseURL string, httpClient *http.Client, storage repository.Storage) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		storage: storage,
	}
}

// Login posts the credentials to /api/user/login and persists token,
// user_id and username. A rejected login returns *errors.HTTPError wrapping
// the server's detail message.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("could not marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/user/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read login response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("Login rejected", "status", resp.StatusCode, "detail", loginDetail(respBody))
		return nil, &app_errors.HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, fmt.Errorf("could not decode login response: %w", err)
	}
	if session.Token == "" {
		return nil, errors.New("login response did not contain a token")
	}

	err = c.storage.SetItems(ctx, map[string]string{
		repository.KeyToken:    session.Token,
		repository.KeyUserID:   session.UserID,
		repository.KeyUsername: session.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("could not persist credentials: %w", err)
	}

	slog.Info("Login successful", "username", session.Username, "token_saved", true)
	return &session, nil
}

// Logout forgets every stored credential.
func (c *Client) Logout(ctx context.Context) error {
	err := c.storage.RemoveItems(ctx,
		repository.KeyToken,
		repository.KeyAuthToken,
		repository.KeyUserID,
		repository.KeyUsername,
	)
	if err != nil {
		return fmt.Errorf("could not clear credentials: %w", err)
	}
	slog.Info("Logged out")
	return nil
}

// CurrentUser returns the stored username, or ErrUnauthenticated when no
// token is stored.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	if _, err := c.storage.GetItem(ctx, repository.KeyToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", app_errors.ErrUnauthenticated
		}
		return "", err
	}
	username, err := c.storage.GetItem(ctx, repository.KeyUsername)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	return username, nil
}

func loginDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return ""
}
