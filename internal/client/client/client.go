package client

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

	"github.com/dmitrijs2005/pennyplan/internal/common"
)

const DefaultTimeout = 10 * time.Second

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Picture  string `json:"picture,omitempty"`
}

// Session is the outcome of a successful sign-in.
type Session struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL, for example
// "http://localhost:5000/api/v1".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*Session, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GoogleLogin exchanges a Google ID token for a session.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*Session, error) {
	body := map[string]string{"token": idToken}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/google/verify", "", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Me returns the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Ping calls the health endpoint, which lives outside the API prefix.
func (c *Client) Ping(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = "/healthz"
	return c.doURL(ctx, http.MethodGet, u.String(), "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	return c.doURL(ctx, method, c.baseURL+path, token, in, out)
}

func (c *Client) doURL(ctx context.Context, method, target, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
