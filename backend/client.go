// cybercraft-launcher/backend/client.go
package backend

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

	"go.uber.org/zap"
)

const (
	loginPath    = "/api/auth/launcher/login/"
	serversPath  = "/api/servers/"
	profilePath  = "/api/accounts/profile/"
	manifestPath = "/api/launcher/manifest.json"
)

var ErrLoginRejected = errors.New("login rejected by backend")

// StatusError is returned for any non-2xx answer other than a rejected login.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.Status)
}

// Client talks to the CyberCraft web backend. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	var resp loginResponse
	err = c.do(ctx, http.MethodPost, loginPath, body, &resp)
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		c.logger.Info("login rejected", zap.String("username", username), zap.Int("status", statusErr.Status))
		return nil, fmt.Errorf("%w (status %d)", ErrLoginRejected, statusErr.Status)
	}
	if err != nil {
		return nil, err
	}

	avatar := resp.User.AvatarURL
	if avatar == nil {
		avatar = resp.User.AvatarURLCamel
	}
	return &LoginResult{Token: resp.Token, AvatarURL: avatar}, nil
}

func (c *Client) Servers(ctx context.Context) ([]Server, error) {
	var servers []Server
	if err := c.do(ctx, http.MethodGet, serversPath, nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	path := profilePath + "?" + url.Values{"username": {username}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) LauncherManifest(ctx context.Context) (*Manifest, error) {
	var m Manifest
	if err := c.do(ctx, http.MethodGet, manifestPath, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Path: path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
