package annotation

import (
	"context"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/usecase/crop"
)

type renderer interface {
	Render(ctx context.Context, src crop.Source, t *domain.ImageTransform) (*crop.Raster, error)
}

type backend interface {
	MeasuringPoints(ctx context.Context, runID string) ([]domain.MeasuringPoint, error)
	SetMeasuringPointImage(ctx context.Context, runID, pointID string, image *domain.MeasuringPointImage) error
	UpdateMeasuringPoint(ctx context.Context, runID, pointID, comments string) error
}

// Selector is the interactive selection box drawn over a rendered crop.
type Selector interface {
	SetBox(loc domain.PointLocation)
	Box() domain.PointLocation
	SetEnabled(enabled bool)
	Release()
}

// SelectorFactory creates the selector for a freshly rendered raster.
type SelectorFactory func(raster *crop.Raster) (Selector, error)
