// Package auth delegates identity to Supabase GoTrue and guards routes with
// bearer tokens.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// ProviderError is an error reported by the identity provider itself, such
// as a duplicate email or wrong password.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("auth provider: %s (status %d)", e.Message, e.Status)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type signUpReq struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account and returns the provider's user object.
func (c *Client) SignUp(ctx context.Context, email, password, username string) (json.RawMessage, error) {
	req := signUpReq{Email: email, Password: password}
	if username != "" {
		req.Data = map[string]string{"username": username}
	}
	body, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", req)
	if err != nil {
		return nil, err
	}

	// With email confirmation off the provider wraps the user in a session.
	if user := gjson.GetBytes(body, "user"); user.IsObject() {
		return json.RawMessage(user.Raw), nil
	}
	return body, nil
}

// Login exchanges email and password for a session.
func (c *Client) Login(ctx context.Context, email, password string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{Email: email, Password: password})
}

// ValidateToken resolves an access token to the user id it was issued for.
func (c *Client) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, nil)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden) {
			return uuid.Nil, ErrInvalidToken
		}
		return uuid.Nil, err
	}

	if !gjson.ValidBytes(body) {
		return uuid.Nil, errors.New("auth: malformed user response")
	}
	id, err := uuid.Parse(gjson.GetBytes(body, "id").String())
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &ProviderError{Status: resp.StatusCode, Message: providerMessage(body)}
	}
	return body, nil
}

// providerMessage picks the human readable message out of a GoTrue error body.
func providerMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, key := range []string{"msg", "error_description", "message", "error"} {
			if m := gjson.GetBytes(body, key); m.Type == gjson.String && m.Str != "" {
				return m.Str
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return "unknown error"
}
