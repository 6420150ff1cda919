package domain

import (
	"errors"
	"math"
)

var (
	ErrNegativeSize   = errors.New("transform size must not be negative")
	ErrNonFiniteValue = errors.New("transform contains a non-finite value")
	ErrTooLarge       = errors.New("transform exceeds the render size limit")
)

// ImageTransform is a crop or placement of a region within a source image,
// expressed in the source image's natural pixel units.
type ImageTransform struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
	Rotate float64 `json:"rotate"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
}

// IsPoint reports whether the transform has zero area. A zero-area transform
// denotes a point annotation rather than an area.
func (t ImageTransform) IsPoint() bool {
	return t.Width == 0 && t.Height == 0
}

// Normalized returns a copy with unset scales defaulted to 1.
func (t ImageTransform) Normalized() ImageTransform {
	if t.ScaleX == 0 {
		t.ScaleX = 1
	}
	if t.ScaleY == 0 {
		t.ScaleY = 1
	}
	return t
}

func (t ImageTransform) Validate() error {
	for _, v := range []float64{t.X, t.Y, t.Width, t.Height, t.Rotate, t.ScaleX, t.ScaleY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteValue
		}
	}
	if t.Width < 0 || t.Height < 0 {
		return ErrNegativeSize
	}
	return nil
}

// CheckSize reports ErrTooLarge when applying t to a width x height image
// would need a raster above MaxRenderPixels: after scaling, after rotation,
// or for the cut region itself.
func (t ImageTransform) CheckSize(width, height int) error {
	n := t.Normalized()

	sw := math.Max(math.Round(float64(width)*math.Abs(n.ScaleX)), 1)
	sh := math.Max(math.Round(float64(height)*math.Abs(n.ScaleY)), 1)
	if sw*sh > MaxRenderPixels {
		return ErrTooLarge
	}

	rad := n.Rotate * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	if (sw*cos+sh*sin)*(sw*sin+sh*cos) > MaxRenderPixels {
		return ErrTooLarge
	}

	if !n.IsPoint() {
		rw := math.Max(math.Round(n.Width), 1)
		rh := math.Max(math.Round(n.Height), 1)
		if rw*rh > MaxRenderPixels {
			return ErrTooLarge
		}
	}
	return nil
}

func (t ImageTransform) Location() PointLocation {
	return PointLocation{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

// PointLocation is a point or a rectangular zone inside a specific image
// asset, in that image's coordinate space.
type PointLocation struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

func (l PointLocation) IsPoint() bool {
	return l.Width == 0 && l.Height == 0
}

// ImageAsset is a stored binary plus the transform it should be displayed with.
type ImageAsset struct {
	ID        string          `json:"id"`
	Path      string          `json:"path"`
	Transform *ImageTransform `json:"transform,omitempty"`
}

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatWebP ImageFormat = "webp"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

const (
	// MaxRenderPixels bounds every raster a render allocates.
	MaxRenderPixels = 64 << 20

	DefaultJPEGQuality  = 85
	DefaultAreaCoverage = 0.5
	// CircleRadius is the point marker radius, in the percentage unit space
	// of relative overlay geometry.
	CircleRadius = 2.0
)

func (f ImageFormat) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatWebP:
		return "image/webp"
	case FormatBMP:
		return "image/bmp"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}
