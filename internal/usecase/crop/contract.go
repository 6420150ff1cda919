package crop

import (
	"context"
	"io"
	"net/http"
)

type objectGetter interface {
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
}

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}
