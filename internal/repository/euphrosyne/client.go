// Package euphrosyne is the client of the lab backend's REST API.
package euphrosyne

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

	"euphro-assets/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	http    doer
	baseURL string
	logger  *zlog.Zerolog
}

// NewClient expects httpClient to authenticate its requests.
func NewClient(httpClient doer, baseURL string, logger *zlog.Zerolog) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// UploadURL returns a pre-signed destination URL for a project document.
func (c *Client) UploadURL(ctx context.Context, project, name string) (string, error) {
	path := fmt.Sprintf("/api/data/projects/%s/documents/upload/shared_access_signature", url.PathEscape(project))
	query := url.Values{"file_name": {name}}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, http.MethodGet, path+"?"+query.Encode(), nil, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", fmt.Errorf("%w: empty upload url", ErrMalformedResponse)
	}
	return resp.URL, nil
}

// DeleteDocument removes a project document. A missing document is not an
// error.
func (c *Client) DeleteDocument(ctx context.Context, project, name string) error {
	path := fmt.Sprintf("/api/data/projects/%s/documents", url.PathEscape(project))
	query := url.Values{"path": {name}}

	err := c.call(ctx, http.MethodDelete, path+"?"+query.Encode(), nil, nil)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (c *Client) MeasuringPoints(ctx context.Context, runID string) ([]domain.MeasuringPoint, error) {
	path := fmt.Sprintf("/api/lab/runs/%s/measuring-points", url.PathEscape(runID))

	var points []domain.MeasuringPoint
	if err := c.call(ctx, http.MethodGet, path, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// SetMeasuringPointImage attaches an image location to a measuring point, or
// detaches it when image is nil.
func (c *Client) SetMeasuringPointImage(ctx context.Context, runID, pointID string, image *domain.MeasuringPointImage) error {
	path := fmt.Sprintf("/api/lab/runs/%s/measuring-points/%s/image", url.PathEscape(runID), url.PathEscape(pointID))

	if image == nil {
		err := c.call(ctx, http.MethodDelete, path, nil, nil)
		if err != nil && !isNotFound(err) {
			return err
		}
		return nil
	}
	return c.call(ctx, http.MethodPut, path, image, nil)
}

func (c *Client) UpdateMeasuringPoint(ctx context.Context, runID, pointID, comments string) error {
	path := fmt.Sprintf("/api/lab/runs/%s/measuring-points/%s", url.PathEscape(runID), url.PathEscape(pointID))
	return c.call(ctx, http.MethodPatch, path, map[string]string{"comments": comments}, nil)
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
