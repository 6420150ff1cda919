package annotation

import (
	"context"
	"fmt"
	"sync"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/geometry"
	"euphro-assets/internal/usecase/crop"

	"github.com/wb-go/wbf/zlog"
)

type Mode string

const (
	ModePoint Mode = "point"
	ModeArea  Mode = "area"
)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StatePointMode
	StateAreaMode
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StatePointMode:
		return "point"
	case StateAreaMode:
		return "area"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Options struct {
	// Location is the stored location, if the point already has one.
	Location *domain.PointLocation
	Readonly bool
	// OnChange receives every location the user produces.
	OnChange func(domain.PointLocation)
}

// Session places one point location on a rendered image.
type Session struct {
	factory  SelectorFactory
	readonly bool
	onChange func(domain.PointLocation)
	logger   *zlog.Zerolog

	mu       sync.Mutex
	state    State
	loading  bool
	raster   *crop.Raster
	selector Selector
	stored   *domain.PointLocation
}

func NewSession(factory SelectorFactory, opts Options, logger *zlog.Zerolog) *Session {
	s := &Session{
		factory:  factory,
		readonly: opts.Readonly,
		onChange: opts.OnChange,
		logger:   logger,
		state:    StateUninitialized,
	}
	if opts.Location != nil {
		loc := *opts.Location
		s.stored = &loc
	}
	return s
}

// Load renders the image and enters the initial mode: area for a stored zone,
// point otherwise. A render finishing after Dispose is discarded.
func (s *Session) Load(ctx context.Context, r renderer, src crop.Source, t *domain.ImageTransform) error {
	s.mu.Lock()
	switch {
	case s.state == StateDisposed:
		s.mu.Unlock()
		return ErrDisposed
	case s.state != StateUninitialized || s.loading:
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.loading = true
	s.mu.Unlock()

	raster, err := r.Render(ctx, src, t)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if s.state == StateDisposed {
		s.logger.Debug().Str("source", src.Name()).Msg("Discarding render of disposed session")
		return ErrDisposed
	}
	if err != nil {
		return fmt.Errorf("failed to render image: %w", err)
	}

	selector, err := s.factory(raster)
	if err != nil {
		return fmt.Errorf("failed to create selector: %w", err)
	}

	s.raster = raster
	s.selector = selector
	s.state = StateReady
	selector.SetEnabled(!s.readonly)

	mode := ModePoint
	if s.stored != nil && !s.stored.IsPoint() {
		mode = ModeArea
	}
	s.enter(mode)

	return nil
}

// SetMode switches between point and area selection.
func (s *Session) SetMode(mode Mode) error {
	if mode != ModePoint && mode != ModeArea {
		return ErrUnknownMode
	}

	s.mu.Lock()
	switch s.state {
	case StateDisposed:
		s.mu.Unlock()
		return ErrDisposed
	case StateUninitialized:
		s.mu.Unlock()
		return ErrNotReady
	}

	loc := s.enter(mode)
	notify := !s.readonly
	s.mu.Unlock()

	if notify {
		s.emit(loc)
	}
	return nil
}

// Move applies a user move or resize of the selection. It is ignored when the
// session is readonly, disposed or not in a mode. In point mode the size is
// always zero.
func (s *Session) Move(loc domain.PointLocation) bool {
	s.mu.Lock()
	if s.readonly || (s.state != StatePointMode && s.state != StateAreaMode) {
		s.mu.Unlock()
		return false
	}

	if s.state == StatePointMode {
		loc.Width, loc.Height = 0, 0
	}
	loc = geometry.Clamp(loc, s.width(), s.height())
	s.selector.SetBox(loc)
	s.stored = &loc
	s.mu.Unlock()

	s.emit(loc)
	return true
}

// Dispose releases the selector. It is safe to call any number of times.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisposed {
		return
	}
	if s.selector != nil {
		s.selector.Release()
		s.selector = nil
	}
	s.state = StateDisposed
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Location returns the current selection, or the stored location before the
// image is rendered.
func (s *Session) Location() (domain.PointLocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selector != nil && (s.state == StatePointMode || s.state == StateAreaMode) {
		return s.selector.Box(), true
	}
	if s.stored != nil {
		return *s.stored, true
	}
	return domain.PointLocation{}, false
}

func (s *Session) Raster() *crop.Raster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raster
}

// enter must be called with mu held.
func (s *Session) enter(mode Mode) domain.PointLocation {
	w, h := s.width(), s.height()

	var loc domain.PointLocation
	switch {
	case s.stored != nil && s.stored.IsPoint() == (mode == ModePoint):
		loc = *s.stored
	case mode == ModePoint:
		loc = domain.PointLocation{X: w / 2, Y: h / 2}
	default:
		loc = geometry.Centered(w, h, domain.DefaultAreaCoverage)
	}
	loc = geometry.Clamp(loc, w, h)

	s.selector.SetBox(loc)
	if mode == ModePoint {
		s.state = StatePointMode
	} else {
		s.state = StateAreaMode
	}

	s.logger.Debug().Str("mode", string(mode)).Bool("readonly", s.readonly).Msg("Selection mode entered")
	return loc
}

func (s *Session) emit(loc domain.PointLocation) {
	if s.onChange != nil {
		s.onChange(loc)
	}
}

func (s *Session) width() float64 {
	return float64(s.raster.Width())
}

func (s *Session) height() float64 {
	return float64(s.raster.Height())
}
