package crop

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/geometry"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	defaultFontSize = 14
	minMarkerRadius = 3
	strokeWidth     = 2
	labelMargin     = 4
)

var (
	markerColor = color.RGBA{R: 230, G: 57, B: 70, A: 255}
	labelColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Label is a measuring point drawn on an annotated render.
type Label struct {
	Name     string               `json:"name"`
	Location domain.PointLocation `json:"location"`
}

// Annotator draws point and zone markers with their names.
type Annotator struct {
	font     *truetype.Font
	fontSize float64
}

// NewAnnotator loads the label font. The returned Annotator is never
// modified afterwards and may be shared between goroutines.
func NewAnnotator(fontSize float64) (*Annotator, error) {
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &Annotator{font: f, fontSize: fontSize}, nil
}

func (a *Annotator) Annotate(img image.Image, labels []Label) (image.Image, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(a.font)
	c.SetFontSize(a.fontSize)
	c.SetClip(result.Bounds())
	c.SetDst(result)
	c.SetSrc(image.NewUniform(labelColor))
	c.SetHinting(font.HintingFull)

	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	for _, label := range labels {
		loc := geometry.Clamp(label.Location, w, h)
		marker := geometry.MarkerFor(loc, w, h)

		var textX, textY int
		switch marker.Kind {
		case geometry.MarkerPoint:
			radius := math.Max(marker.Radius*w/100, minMarkerRadius)
			fillCircle(result, loc.X, loc.Y, radius, markerColor)
			textX = int(loc.X + radius + labelMargin)
			textY = int(loc.Y + a.fontSize/2)
		default:
			strokeRect(result, loc, markerColor)
			textX = int(loc.X + labelMargin)
			textY = int(loc.Y + a.fontSize + labelMargin)
		}

		if label.Name == "" {
			continue
		}
		if _, err := c.DrawString(label.Name, freetype.Pt(textX, textY)); err != nil {
			return nil, fmt.Errorf("failed to draw label %q: %w", label.Name, err)
		}
	}

	return result, nil
}

func fillCircle(dst *image.RGBA, cx, cy, radius float64, col color.Color) {
	r2 := radius * radius
	minX, maxX := int(math.Floor(cx-radius)), int(math.Ceil(cx+radius))
	minY, maxY := int(math.Floor(cy-radius)), int(math.Ceil(cy+radius))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r2 {
				dst.Set(x, y, col)
			}
		}
	}
}

func strokeRect(dst *image.RGBA, loc domain.PointLocation, col color.Color) {
	x0, y0 := int(math.Round(loc.X)), int(math.Round(loc.Y))
	x1, y1 := int(math.Round(loc.X+loc.Width)), int(math.Round(loc.Y+loc.Height))
	src := image.NewUniform(col)

	edges := []image.Rectangle{
		image.Rect(x0, y0, x1, y0+strokeWidth),
		image.Rect(x0, y1-strokeWidth, x1, y1),
		image.Rect(x0, y0, x0+strokeWidth, y1),
		image.Rect(x1-strokeWidth, y0, x1, y1),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}
