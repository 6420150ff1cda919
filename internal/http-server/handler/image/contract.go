package image

import (
	"context"
	"io"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/usecase/crop"
	"euphro-assets/internal/usecase/upload"
)

type renderer interface {
	RenderAs(ctx context.Context, src crop.Source, t *domain.ImageTransform, format domain.ImageFormat) (*crop.Raster, error)
	RenderAnnotated(ctx context.Context, src crop.Source, t *domain.ImageTransform, labels []crop.Label) (*crop.Raster, error)
}

type objectStore interface {
	GetObject(ctx context.Context, path string) (io.ReadCloser, error)
}

type uploader interface {
	Upload(ctx context.Context, file domain.File, dst upload.Destination) error
}

// DestinationFunc opens an upload target for an object path in the image
// store.
type DestinationFunc func(objectPath, contentType string) upload.Destination
