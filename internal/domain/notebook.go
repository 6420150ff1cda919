package domain

type MeasuringPoint struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	ObjectGroupID *string              `json:"objectGroupId,omitempty"`
	Comments      string               `json:"comments,omitempty"`
	Image         *MeasuringPointImage `json:"image,omitempty"`
}

// MeasuringPointImage couples a weak reference to an ImageAsset with the
// point's own location inside it.
type MeasuringPointImage struct {
	ImageAssetID string        `json:"imageAssetId" validate:"required"`
	Location     PointLocation `json:"pointLocation"`
}
