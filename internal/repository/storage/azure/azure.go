// Package azure writes files to an Azure File share through pre-signed URLs.
package azure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/repository/storage"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/file"
	"github.com/wb-go/wbf/zlog"
)

type FileShare struct {
	options *file.ClientOptions
	logger  *zlog.Zerolog
}

// NewFileShare sends requests through transport, or the SDK default when it
// is nil. An empty version keeps the SDK's service version. The SDK retry
// policy is disabled: failed ranges are reported to the upload engine as is.
func NewFileShare(transport policy.Transporter, version string, logger *zlog.Zerolog) *FileShare {
	opts := &file.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			APIVersion: version,
			Retry:      policy.RetryOptions{MaxRetries: -1},
		},
	}
	if transport != nil {
		opts.Transport = transport
	}
	return &FileShare{options: opts, logger: logger}
}

func (s *FileShare) client(signedURL string) (*file.Client, error) {
	c, err := file.NewClientWithNoCredential(signedURL, s.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create file client: %w", err)
	}
	return c, nil
}

// Destination returns an upload target for a pre-signed file URL.
func (s *FileShare) Destination(signedURL string) *Destination {
	return &Destination{share: s, url: signedURL}
}

// Delete removes the file behind a pre-signed URL. A missing file is not an
// error.
func (s *FileShare) Delete(ctx context.Context, signedURL string) error {
	c, err := s.client(signedURL)
	if err != nil {
		return err
	}

	if _, err := c.Delete(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return s.mapError(http.MethodDelete, err)
	}
	return nil
}

func (s *FileShare) mapError(method string, err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	s.logger.Warn().
		Str("method", method).
		Int("status", respErr.StatusCode).
		Str("code", respErr.ErrorCode).
		Msg("Unexpected file share response")

	return &StatusError{Method: method, StatusCode: respErr.StatusCode, Code: respErr.ErrorCode}
}

type Destination struct {
	share *FileShare
	url   string
}

// Create declares a file of size bytes. The content is written afterwards
// with range writes.
func (d *Destination) Create(ctx context.Context, size int64) error {
	c, err := d.share.client(d.url)
	if err != nil {
		return err
	}

	if _, err := c.Create(ctx, size, nil); err != nil {
		return d.share.mapError(http.MethodPut, err)
	}
	return nil
}

func (d *Destination) WriteRange(ctx context.Context, chunk domain.Chunk, data io.Reader) error {
	c, err := d.share.client(d.url)
	if err != nil {
		return err
	}

	body, err := seekable(data)
	if err != nil {
		return err
	}

	if _, err := c.UploadRange(ctx, chunk.Start, streaming.NopCloser(body), nil); err != nil {
		return d.share.mapError(http.MethodPut, err)
	}
	return nil
}

func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read range: %w", err)
	}
	return bytes.NewReader(data), nil
}

type StatusError struct {
	Method     string
	StatusCode int
	Code       string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("file share %s returned status %d (%s)", e.Method, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("file share %s returned status %d", e.Method, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return storage.ErrUnexpectedStatus
}
