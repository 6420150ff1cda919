package crop

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"euphro-assets/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

// createTestImage returns a w×h image whose left half is red and right half blue.
func createTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, red)
			} else {
				img.Set(x, y, blue)
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	zlog.Init()
	a, err := NewAnnotator(0)
	require.NoError(t, err)
	return NewRenderer(domain.FormatPNG, 0, a, &zlog.Logger)
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestCrop_NilTransformReturnsFullImage(t *testing.T) {
	src := createTestImage(40, 20)

	out, err := Crop(src, nil)
	require.NoError(t, err)

	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
	assert.Equal(t, red, nrgbaAt(out, 0, 0))
	assert.Equal(t, blue, nrgbaAt(out, 39, 19))
}

func TestCrop_PointTransformReturnsFullImage(t *testing.T) {
	src := createTestImage(40, 20)

	out, err := Crop(src, &domain.ImageTransform{X: 12, Y: 7})
	require.NoError(t, err)

	assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())
}

func TestCrop_Region(t *testing.T) {
	src := createTestImage(4, 2)

	out, err := Crop(src, &domain.ImageTransform{X: 1, Y: 0, Width: 2, Height: 2})
	require.NoError(t, err)

	require.Equal(t, image.Pt(2, 2), out.Bounds().Size())
	assert.Equal(t, red, nrgbaAt(out, 0, 0))
	assert.Equal(t, blue, nrgbaAt(out, 1, 0))
}

func TestCrop_OutOfBoundsIsTransparent(t *testing.T) {
	src := createTestImage(4, 2)

	out, err := Crop(src, &domain.ImageTransform{X: 3, Y: 0, Width: 2, Height: 2})
	require.NoError(t, err)

	require.Equal(t, image.Pt(2, 2), out.Bounds().Size())
	assert.Equal(t, blue, nrgbaAt(out, 0, 0))
	assert.Equal(t, uint8(0), nrgbaAt(out, 1, 0).A)
	assert.Equal(t, uint8(0), nrgbaAt(out, 1, 1).A)
}

func TestCrop_RotateClockwise(t *testing.T) {
	src := createTestImage(4, 2)

	out, err := Crop(src, &domain.ImageTransform{Rotate: 90})
	require.NoError(t, err)

	require.Equal(t, image.Pt(2, 4), out.Bounds().Size())
	assert.Equal(t, red, nrgbaAt(out, 0, 0))
	assert.Equal(t, blue, nrgbaAt(out, 0, 3))
}

func TestCrop_FlipHorizontal(t *testing.T) {
	src := createTestImage(4, 2)

	out, err := Crop(src, &domain.ImageTransform{ScaleX: -1, ScaleY: 1})
	require.NoError(t, err)

	assert.Equal(t, blue, nrgbaAt(out, 0, 0))
	assert.Equal(t, red, nrgbaAt(out, 3, 0))
}

func TestCrop_DoesNotMutateInput(t *testing.T) {
	src := createTestImage(4, 2)
	before := append([]uint8(nil), src.Pix...)

	_, err := Crop(src, &domain.ImageTransform{X: 1, Width: 2, Height: 1, Rotate: 90, ScaleX: -1})
	require.NoError(t, err)

	assert.Equal(t, before, src.Pix)
}

func TestCrop_RejectsOversizedTransforms(t *testing.T) {
	src := createTestImage(10, 10)

	for name, tr := range map[string]domain.ImageTransform{
		"huge region":   {Width: 1e12, Height: 1e12},
		"large region":  {Width: 50000, Height: 50000},
		"huge scale":    {ScaleX: 1e6, ScaleY: 1e6},
		"thin overflow": {Width: 1e12, Height: 0.1},
	} {
		t.Run(name, func(t *testing.T) {
			var (
				out image.Image
				err error
			)
			require.NotPanics(t, func() {
				out, err = Crop(src, &tr)
			})
			assert.ErrorIs(t, err, domain.ErrTooLarge)
			assert.Nil(t, out)
		})
	}
}

func TestRenderer_OversizedTransform(t *testing.T) {
	r := newTestRenderer(t)
	src := BytesSource{Label: "sample.png", Data: encodePNG(t, createTestImage(10, 10))}

	raster, err := r.Render(context.Background(), src, &domain.ImageTransform{Width: 50000, Height: 50000})

	assert.ErrorIs(t, err, domain.ErrTooLarge)
	assert.Nil(t, raster)
}

func TestRenderer_Render(t *testing.T) {
	r := newTestRenderer(t)
	src := BytesSource{Label: "sample.png", Data: encodePNG(t, createTestImage(100, 50))}

	raster, err := r.Render(context.Background(), src, &domain.ImageTransform{X: 10, Y: 5, Width: 30, Height: 20})
	require.NoError(t, err)

	assert.Equal(t, 30, raster.Width())
	assert.Equal(t, 20, raster.Height())
	assert.Equal(t, domain.FormatPNG, raster.Format)
	assert.Equal(t, "image/png", raster.ContentType())

	decoded, err := png.Decode(bytes.NewReader(raster.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), decoded.Bounds().Size())
}

func TestRenderer_RenderIsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	src := BytesSource{Data: encodePNG(t, createTestImage(64, 48))}
	transform := &domain.ImageTransform{X: 3, Y: 4, Width: 20, Height: 10, Rotate: 90}

	first, err := r.Render(context.Background(), src, transform)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), src, transform)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func TestRenderer_RenderAsJPEG(t *testing.T) {
	r := newTestRenderer(t)
	src := BytesSource{Data: encodePNG(t, createTestImage(16, 16))}

	raster, err := r.RenderAs(context.Background(), src, nil, ParseFormat("jpg"))
	require.NoError(t, err)

	assert.Equal(t, domain.FormatJPEG, raster.Format)
	assert.Equal(t, []byte{0xFF, 0xD8}, raster.Data[:2])
}

func TestRenderer_DecodeError(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(context.Background(), BytesSource{Label: "broken", Data: []byte("not an image")}, nil)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "broken", decodeErr.Source)
}

func TestRenderer_EmptySource(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(context.Background(), BytesSource{}, nil)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestRenderer_InvalidTransform(t *testing.T) {
	r := newTestRenderer(t)
	src := BytesSource{Data: encodePNG(t, createTestImage(8, 8))}

	_, err := r.Render(context.Background(), src, &domain.ImageTransform{Width: -1, Height: 3})

	assert.ErrorIs(t, err, domain.ErrNegativeSize)
}

func TestRenderer_RenderAsync(t *testing.T) {
	r := newTestRenderer(t)
	src := BytesSource{Data: encodePNG(t, createTestImage(8, 8))}

	res := <-r.RenderAsync(context.Background(), src, &domain.ImageTransform{Width: 4, Height: 2})

	require.NoError(t, res.Err)
	assert.Equal(t, 4, res.Raster.Width())
	assert.Equal(t, 2, res.Raster.Height())
}

func TestRenderer_CanceledContext(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, BytesSource{Data: encodePNG(t, createTestImage(8, 8))}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestURLSource(t *testing.T) {
	data := encodePNG(t, createTestImage(10, 10))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/image.png" {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	r := newTestRenderer(t)

	raster, err := r.Render(context.Background(), NewURLSource(srv.URL+"/image.png", srv.Client()), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, raster.Width())

	_, err = r.Render(context.Background(), NewURLSource(srv.URL+"/missing.png", srv.Client()), nil)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

type fakeStorage struct {
	objects map[string][]byte
}

func (s *fakeStorage) GetObject(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := s.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestStorageSource(t *testing.T) {
	storage := &fakeStorage{objects: map[string][]byte{
		"runs/1/object.png": encodePNG(t, createTestImage(12, 6)),
	}}
	r := newTestRenderer(t)

	raster, err := r.Render(context.Background(), NewStorageSource("runs/1/object.png", storage), &domain.ImageTransform{Width: 6, Height: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, raster.Width())

	_, err = r.Render(context.Background(), NewStorageSource("runs/1/missing.png", storage), nil)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "runs/1/missing.png", decodeErr.Source)
}
