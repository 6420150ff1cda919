// Package geometry converts pixel-space locations into the relative,
// percentage-based geometry used to overlay markers on a scaled display of a
// full image. Locations stay in pixel space everywhere else; the conversion
// happens only at the render boundary.
package geometry

import (
	"math"

	"euphro-assets/internal/domain"
)

type MarkerKind string

const (
	MarkerPoint MarkerKind = "point"
	MarkerZone  MarkerKind = "zone"
)

// RelativeRect is expressed in percent of the image width on both axes, so
// that one unit has the same length horizontally and vertically.
type RelativeRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Marker struct {
	Kind   MarkerKind   `json:"kind"`
	Box    RelativeRect `json:"box"`
	Radius float64      `json:"radius,omitempty"`
}

type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToRelative divides by the image dimensions over 100 and corrects the
// vertical axis by the aspect ratio.
func ToRelative(loc domain.PointLocation, imageWidth, imageHeight float64) RelativeRect {
	if imageWidth <= 0 || imageHeight <= 0 {
		return RelativeRect{}
	}

	ratioX := imageWidth / 100
	ratioY := imageHeight / 100
	aspect := imageWidth / imageHeight

	return RelativeRect{
		X:      loc.X / ratioX,
		Y:      loc.Y / ratioY / aspect,
		Width:  loc.Width / ratioX,
		Height: loc.Height / ratioY / aspect,
	}
}

// ToPixels is the inverse of ToRelative.
func ToPixels(rel RelativeRect, imageWidth, imageHeight float64) domain.PointLocation {
	if imageWidth <= 0 || imageHeight <= 0 {
		return domain.PointLocation{}
	}

	ratioX := imageWidth / 100
	ratioY := imageHeight / 100
	aspect := imageWidth / imageHeight

	return domain.PointLocation{
		X:      rel.X * ratioX,
		Y:      rel.Y * aspect * ratioY,
		Width:  rel.Width * ratioX,
		Height: rel.Height * aspect * ratioY,
	}
}

// ViewBox is the overlay coordinate space matching ToRelative.
func ViewBox(imageWidth, imageHeight float64) Box {
	if imageWidth <= 0 || imageHeight <= 0 {
		return Box{}
	}
	return Box{Width: 100, Height: 100 * imageHeight / imageWidth}
}

// MarkerFor never yields a zero-size rectangle: point locations become a
// fixed-radius marker centered on the point.
func MarkerFor(loc domain.PointLocation, imageWidth, imageHeight float64) Marker {
	rel := ToRelative(loc, imageWidth, imageHeight)
	if !loc.IsPoint() {
		return Marker{Kind: MarkerZone, Box: rel}
	}

	r := domain.CircleRadius
	return Marker{
		Kind: MarkerPoint,
		Box: RelativeRect{
			X:      rel.X - r/2,
			Y:      rel.Y - r/2,
			Width:  r,
			Height: r,
		},
		Radius: r,
	}
}

// Clamp keeps loc inside a width x height image.
func Clamp(loc domain.PointLocation, width, height float64) domain.PointLocation {
	loc.Width = math.Min(math.Max(loc.Width, 0), width)
	loc.Height = math.Min(math.Max(loc.Height, 0), height)
	loc.X = math.Min(math.Max(loc.X, 0), width-loc.Width)
	loc.Y = math.Min(math.Max(loc.Y, 0), height-loc.Height)
	return loc
}

// Centered returns a box of the given fraction of width x height, centered.
// A zero fraction gives the image center point.
func Centered(width, height, fraction float64) domain.PointLocation {
	w := width * fraction
	h := height * fraction
	return domain.PointLocation{
		X:      (width - w) / 2,
		Y:      (height - h) / 2,
		Width:  w,
		Height: h,
	}
}
