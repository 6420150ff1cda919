package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/zlog"
)

type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context, stale string) (string, error)
}

// Client sends requests with a bearer token. A 401 response triggers one
// token refresh and one identical retry; the second response is returned as
// is. Transport errors are never retried.
type Client struct {
	http   doer
	tokens tokenSource
	logger *zlog.Zerolog
}

func NewClient(httpClient doer, tokens tokenSource, logger *zlog.Zerolog) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, tokens: tokens, logger: logger}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if err := replayable(req); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(req, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.logger.Info().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Msg("Access token rejected, refreshing")

	token, err = c.tokens.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	return c.send(req, token)
}

func (c *Client) send(req *http.Request, token string) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		attempt.Body = body
	}
	attempt.Header.Set("Authorization", "Bearer "+token)

	return c.http.Do(attempt)
}

// replayable makes sure the request body can be sent twice.
func replayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()
	return nil
}
