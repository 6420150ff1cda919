package annotation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"euphro-assets/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type commentUpdate struct {
	pointID, comments string
}

type fakeBackend struct {
	mu       sync.Mutex
	points   []domain.MeasuringPoint
	images   map[string]*domain.MeasuringPointImage
	comments []commentUpdate
	failSet  map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{images: map[string]*domain.MeasuringPointImage{}, failSet: map[string]error{}}
}

func (b *fakeBackend) MeasuringPoints(ctx context.Context, runID string) ([]domain.MeasuringPoint, error) {
	return b.points, nil
}

func (b *fakeBackend) SetMeasuringPointImage(ctx context.Context, runID, pointID string, image *domain.MeasuringPointImage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failSet[pointID]; err != nil {
		return err
	}
	b.images[pointID] = image
	return nil
}

func (b *fakeBackend) UpdateMeasuringPoint(ctx context.Context, runID, pointID, comments string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments = append(b.comments, commentUpdate{pointID: pointID, comments: comments})
	return nil
}

func (b *fakeBackend) commentUpdates() []commentUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]commentUpdate(nil), b.comments...)
}

func newTestNotebook(b *fakeBackend, delay time.Duration) *Notebook {
	zlog.Init()
	return NewNotebook("run-1", b, delay, &zlog.Logger)
}

func TestNotebook_Points(t *testing.T) {
	b := newFakeBackend()
	b.points = []domain.MeasuringPoint{{ID: "1", Name: "Point 1"}}
	n := newTestNotebook(b, 0)

	points, err := n.Points(context.Background())

	require.NoError(t, err)
	assert.Equal(t, b.points, points)
}

func TestNotebook_CommentsAreDebounced(t *testing.T) {
	b := newFakeBackend()
	n := newTestNotebook(b, 30*time.Millisecond)

	require.NoError(t, n.EditComments("1", "c"))
	require.NoError(t, n.EditComments("1", "cr"))
	require.NoError(t, n.EditComments("1", "crack"))

	assert.Eventually(t, func() bool { return len(b.commentUpdates()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []commentUpdate{{pointID: "1", comments: "crack"}}, b.commentUpdates())
}

func TestNotebook_CloseFlushesPendingComments(t *testing.T) {
	b := newFakeBackend()
	n := newTestNotebook(b, time.Hour)

	require.NoError(t, n.EditComments("2", "glaze"))
	require.NoError(t, n.EditComments("1", "crack"))
	require.NoError(t, n.Close(context.Background()))

	assert.Equal(t, []commentUpdate{{pointID: "1", comments: "crack"}, {pointID: "2", comments: "glaze"}}, b.commentUpdates())
	assert.ErrorIs(t, n.EditComments("1", "late"), ErrClosed)
	assert.NoError(t, n.Close(context.Background()))
}

func TestNotebook_StageAndSave(t *testing.T) {
	b := newFakeBackend()
	n := newTestNotebook(b, 0)
	image := &domain.MeasuringPointImage{ImageAssetID: "img-1", Location: domain.PointLocation{X: 3, Y: 4}}

	require.NoError(t, n.Stage("1", image))
	require.NoError(t, n.Stage("2", nil))
	staged, ok := n.Staged("1")
	require.True(t, ok)
	assert.Equal(t, image, staged)

	require.NoError(t, n.Save(context.Background()))

	assert.Equal(t, image, b.images["1"])
	detached, ok := b.images["2"]
	assert.True(t, ok)
	assert.Nil(t, detached)
	_, ok = n.Staged("1")
	assert.False(t, ok)
}

func TestNotebook_StageRejectsInvalidImage(t *testing.T) {
	n := newTestNotebook(newFakeBackend(), 0)

	assert.Error(t, n.Stage("1", &domain.MeasuringPointImage{}))
	assert.Error(t, n.Stage("1", &domain.MeasuringPointImage{ImageAssetID: "img", Location: domain.PointLocation{Width: -1}}))
}

func TestNotebook_FailedSaveStaysStaged(t *testing.T) {
	b := newFakeBackend()
	boom := errors.New("backend down")
	b.failSet["1"] = boom
	n := newTestNotebook(b, 0)
	image := &domain.MeasuringPointImage{ImageAssetID: "img-1"}

	require.NoError(t, n.Stage("1", image))
	require.NoError(t, n.Stage("2", image))

	err := n.Save(context.Background())

	assert.ErrorIs(t, err, boom)
	_, ok := n.Staged("1")
	assert.True(t, ok)
	_, ok = n.Staged("2")
	assert.False(t, ok)
}
