package annotation

import (
	"sync"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/geometry"
	"euphro-assets/internal/usecase/crop"
)

// Box is an in-memory selector bounded by the raster it was created for.
type Box struct {
	mu       sync.Mutex
	width    float64
	height   float64
	box      domain.PointLocation
	enabled  bool
	releases int
}

func NewBox(width, height float64) *Box {
	return &Box{width: width, height: height, enabled: true}
}

func NewBoxFactory() SelectorFactory {
	return func(raster *crop.Raster) (Selector, error) {
		return NewBox(float64(raster.Width()), float64(raster.Height())), nil
	}
}

func (b *Box) SetBox(loc domain.PointLocation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.box = geometry.Clamp(loc, b.width, b.height)
}

func (b *Box) Box() domain.PointLocation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.box
}

func (b *Box) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

func (b *Box) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *Box) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releases++
}

// Releases reports how many times Release was called.
func (b *Box) Releases() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.releases
}
