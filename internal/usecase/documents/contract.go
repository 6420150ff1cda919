package documents

import (
	"context"

	"euphro-assets/internal/usecase/upload"
)

type backend interface {
	UploadURL(ctx context.Context, project, name string) (string, error)
	DeleteDocument(ctx context.Context, project, name string) error
}

type uploader interface {
	UploadAll(ctx context.Context, items []upload.Item) []upload.Result
}

// DestinationFunc opens the upload destination behind a pre-signed URL.
type DestinationFunc func(signedURL string) upload.Destination
