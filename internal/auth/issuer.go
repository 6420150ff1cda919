package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"euphro-assets/internal/config"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Issuer obtains tokens from the backend's token endpoints.
type Issuer struct {
	client     doer
	tokenURL   string
	refreshURL string
	email      string
	password   string
}

func NewIssuer(client doer, baseURL string, cfg config.AuthConfig) *Issuer {
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(baseURL, "/")
	return &Issuer{
		client:     client,
		tokenURL:   base + cfg.TokenPath,
		refreshURL: base + cfg.RefreshPath,
		email:      cfg.Email,
		password:   cfg.Password,
	}
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// is kept unless the endpoint rotates it.
func (i *Issuer) Refresh(ctx context.Context, refresh string) (Tokens, error) {
	if refresh == "" {
		return Tokens{}, ErrNoRefreshToken
	}

	var resp Tokens
	if err := i.post(ctx, i.refreshURL, map[string]string{"refresh": refresh}, &resp); err != nil {
		return Tokens{}, err
	}
	if resp.Access == "" {
		return Tokens{}, ErrMalformedResponse
	}
	if resp.Refresh == "" {
		resp.Refresh = refresh
	}
	return resp, nil
}

// Login obtains a fresh token pair with the configured credentials.
func (i *Issuer) Login(ctx context.Context) (Tokens, error) {
	if i.email == "" || i.password == "" {
		return Tokens{}, ErrNoCredentials
	}

	var resp Tokens
	payload := map[string]string{"email": i.email, "password": i.password}
	if err := i.post(ctx, i.tokenURL, payload, &resp); err != nil {
		return Tokens{}, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return Tokens{}, ErrMalformedResponse
	}
	return resp, nil
}

func (i *Issuer) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
