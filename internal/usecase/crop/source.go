package crop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Source is where a renderer reads the encoded image from.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string {
	if s.Label == "" {
		return "bytes"
	}
	return s.Label
}

func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if len(s.Data) == 0 {
		return nil, ErrEmptySource
	}
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

type URLSource struct {
	url    string
	client doer
}

// NewURLSource reads the image with a GET through client, which may be the
// authenticated client.
func NewURLSource(url string, client doer) *URLSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &URLSource{url: url, client: client}
}

func (s *URLSource) Name() string {
	return s.url
}

func (s *URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp.Body, nil
}

type StorageSource struct {
	path    string
	storage objectGetter
}

func NewStorageSource(path string, storage objectGetter) *StorageSource {
	return &StorageSource{path: path, storage: storage}
}

func (s *StorageSource) Name() string {
	return s.path
}

func (s *StorageSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return s.storage.GetObject(ctx, s.path)
}
