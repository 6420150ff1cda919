package annotation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"euphro-assets/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	DefaultCommentDelay = 500 * time.Millisecond
	commentTimeout      = 30 * time.Second
)

type pendingComment struct {
	text  string
	timer *time.Timer
}

// Notebook holds unsaved measuring point edits of one run. Image locations
// are staged until Save; comment edits are saved once they stop changing
// for the debounce delay.
type Notebook struct {
	runID    string
	backend  backend
	delay    time.Duration
	validate *validator.Validate
	logger   *zlog.Zerolog

	mu       sync.Mutex
	closed   bool
	staged   map[string]*domain.MeasuringPointImage
	comments map[string]*pendingComment
	inflight sync.WaitGroup
}

func NewNotebook(runID string, backend backend, delay time.Duration, logger *zlog.Zerolog) *Notebook {
	if delay <= 0 {
		delay = DefaultCommentDelay
	}
	return &Notebook{
		runID:    runID,
		backend:  backend,
		delay:    delay,
		validate: validator.New(),
		logger:   logger,
		staged:   make(map[string]*domain.MeasuringPointImage),
		comments: make(map[string]*pendingComment),
	}
}

func (n *Notebook) Points(ctx context.Context) ([]domain.MeasuringPoint, error) {
	points, err := n.backend.MeasuringPoints(ctx, n.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list measuring points: %w", err)
	}
	return points, nil
}

// Stage records the image location of a point. A nil image detaches the
// point from its image on Save.
func (n *Notebook) Stage(pointID string, image *domain.MeasuringPointImage) error {
	if image != nil {
		if err := n.validate.Struct(image); err != nil {
			return fmt.Errorf("invalid measuring point image: %w", err)
		}
		copied := *image
		image = &copied
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	n.staged[pointID] = image
	return nil
}

func (n *Notebook) Staged(pointID string) (*domain.MeasuringPointImage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	image, ok := n.staged[pointID]
	return image, ok
}

// Save commits every staged location. Locations that fail stay staged.
func (n *Notebook) Save(ctx context.Context) error {
	n.mu.Lock()
	staged := n.staged
	n.staged = make(map[string]*domain.MeasuringPointImage)
	n.mu.Unlock()

	ids := make([]string, 0, len(staged))
	for id := range staged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := n.backend.SetMeasuringPointImage(ctx, n.runID, id, staged[id]); err != nil {
			n.logger.Error().Err(err).Str("run_id", n.runID).Str("point_id", id).Msg("Failed to save point location")
			errs = append(errs, fmt.Errorf("point %s: %w", id, err))

			n.mu.Lock()
			if _, newer := n.staged[id]; !newer {
				n.staged[id] = staged[id]
			}
			n.mu.Unlock()
		}
	}

	return errors.Join(errs...)
}

// EditComments schedules a comment save. Further edits of the same point
// within the delay replace the pending text and restart the delay.
func (n *Notebook) EditComments(pointID, comments string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}

	if prev, ok := n.comments[pointID]; ok {
		prev.timer.Stop()
	}

	p := &pendingComment{text: comments}
	p.timer = time.AfterFunc(n.delay, func() {
		n.mu.Lock()
		if n.comments[pointID] != p {
			n.mu.Unlock()
			return
		}
		delete(n.comments, pointID)
		n.inflight.Add(1)
		n.mu.Unlock()

		defer n.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), commentTimeout)
		defer cancel()
		n.saveComment(ctx, pointID, p.text)
	})
	n.comments[pointID] = p

	return nil
}

// Close flushes pending comments and staged locations. Further edits are
// rejected.
func (n *Notebook) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	pending := n.comments
	n.comments = make(map[string]*pendingComment)
	n.mu.Unlock()

	ids := make([]string, 0, len(pending))
	for id, p := range pending {
		p.timer.Stop()
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if err := n.saveComment(ctx, id, pending[id].text); err != nil {
			errs = append(errs, fmt.Errorf("point %s: %w", id, err))
		}
	}

	n.inflight.Wait()

	if err := n.Save(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (n *Notebook) saveComment(ctx context.Context, pointID, comments string) error {
	if err := n.backend.UpdateMeasuringPoint(ctx, n.runID, pointID, comments); err != nil {
		n.logger.Error().Err(err).Str("run_id", n.runID).Str("point_id", pointID).Msg("Failed to save comments")
		return err
	}
	return nil
}
