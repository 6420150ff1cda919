package dto

import (
	"euphro-assets/internal/domain"
	"euphro-assets/internal/usecase/crop"
)

type CropRequest struct {
	Path   string `validate:"required"`
	X      *float64
	Y      *float64
	Width  *float64 `validate:"omitempty,gte=0"`
	Height *float64 `validate:"omitempty,gte=0"`
	Rotate float64
	ScaleX float64
	ScaleY float64
	Format string `validate:"omitempty,oneof=png jpg jpeg gif"`
}

// Transform returns nil when no region was requested.
func (r CropRequest) Transform() *domain.ImageTransform {
	if r.X == nil && r.Y == nil && r.Width == nil && r.Height == nil {
		if r.Rotate == 0 && r.ScaleX == 0 && r.ScaleY == 0 {
			return nil
		}
	}
	return &domain.ImageTransform{
		X:      deref(r.X),
		Y:      deref(r.Y),
		Width:  deref(r.Width),
		Height: deref(r.Height),
		Rotate: r.Rotate,
		ScaleX: r.ScaleX,
		ScaleY: r.ScaleY,
	}
}

type MarkersRequest struct {
	Width     float64                `json:"width" validate:"gt=0"`
	Height    float64                `json:"height" validate:"gt=0"`
	Locations []domain.PointLocation `json:"locations" validate:"required,dive"`
}

type AnnotateRequest struct {
	Path      string                 `json:"path" validate:"required"`
	Transform *domain.ImageTransform `json:"transform"`
	Points    []crop.Label           `json:"points" validate:"dive"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
