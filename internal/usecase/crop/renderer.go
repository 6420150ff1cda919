package crop

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"euphro-assets/internal/domain"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Raster is an encoded render together with the decoded pixels it was
// encoded from.
type Raster struct {
	Image  image.Image
	Data   []byte
	Format domain.ImageFormat
}

func (r *Raster) Width() int {
	return r.Image.Bounds().Dx()
}

func (r *Raster) Height() int {
	return r.Image.Bounds().Dy()
}

func (r *Raster) ContentType() string {
	return r.Format.ContentType()
}

type Result struct {
	Raster *Raster
	Err    error
}

type Renderer struct {
	format    domain.ImageFormat
	quality   int
	annotator *Annotator
	logger    *zlog.Zerolog
}

func NewRenderer(format domain.ImageFormat, quality int, annotator *Annotator, logger *zlog.Zerolog) *Renderer {
	if format == "" {
		format = domain.FormatPNG
	}
	if quality <= 0 || quality > 100 {
		quality = domain.DefaultJPEGQuality
	}
	return &Renderer{
		format:    format,
		quality:   quality,
		annotator: annotator,
		logger:    logger,
	}
}

// Render produces the region of src described by t. A nil or point transform
// renders the whole image.
func (r *Renderer) Render(ctx context.Context, src Source, t *domain.ImageTransform) (*Raster, error) {
	return r.render(ctx, src, t, r.format, nil)
}

// RenderAs is Render with an explicit output format.
func (r *Renderer) RenderAs(ctx context.Context, src Source, t *domain.ImageTransform, format domain.ImageFormat) (*Raster, error) {
	return r.render(ctx, src, t, format, nil)
}

// RenderAnnotated renders the crop and draws labels on top of it. Label
// locations are in the coordinate space of the cropped image.
func (r *Renderer) RenderAnnotated(ctx context.Context, src Source, t *domain.ImageTransform, labels []Label) (*Raster, error) {
	return r.render(ctx, src, t, r.format, labels)
}

// RenderAsync runs Render in its own goroutine. The channel receives exactly
// one result and is never closed before it.
func (r *Renderer) RenderAsync(ctx context.Context, src Source, t *domain.ImageTransform) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		raster, err := r.Render(ctx, src, t)
		ch <- Result{Raster: raster, Err: err}
	}()
	return ch
}

func (r *Renderer) render(ctx context.Context, src Source, t *domain.ImageTransform, format domain.ImageFormat, labels []Label) (*Raster, error) {
	if t != nil {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("invalid transform: %w", err)
		}
	}

	img, err := r.load(ctx, src)
	if err != nil {
		return nil, err
	}

	out, err := Crop(img, t)
	if err != nil {
		return nil, fmt.Errorf("invalid transform: %w", err)
	}

	if len(labels) > 0 {
		if r.annotator == nil {
			return nil, ErrNoAnnotator
		}
		out, err = r.annotator.Annotate(out, labels)
		if err != nil {
			return nil, fmt.Errorf("failed to annotate image: %w", err)
		}
	}

	data, format, err := encode(out, format, r.quality)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("source", src.Name()).
		Int("width", out.Bounds().Dx()).
		Int("height", out.Bounds().Dy()).
		Str("format", string(format)).
		Int("labels", len(labels)).
		Msg("Image rendered")

	return &Raster{Image: out, Data: data, Format: format}, nil
}

func (r *Renderer) load(ctx context.Context, src Source) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		r.logger.Error().Err(err).Str("source", src.Name()).Msg("Failed to open image source")
		return nil, &DecodeError{Source: src.Name(), Err: err}
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		r.logger.Error().Err(err).Str("source", src.Name()).Msg("Failed to decode image")
		return nil, &DecodeError{Source: src.Name(), Err: err}
	}

	return img, nil
}

// Crop applies the transform's flips, scales and rotation to img and then
// cuts out the (x, y, width, height) region. Parts of the region outside the
// oriented image are transparent. img is not modified. Transforms needing a
// raster above domain.MaxRenderPixels fail with domain.ErrTooLarge.
func Crop(img image.Image, t *domain.ImageTransform) (image.Image, error) {
	if t == nil {
		return imaging.Clone(img), nil
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := t.CheckSize(img.Bounds().Dx(), img.Bounds().Dy()); err != nil {
		return nil, err
	}

	n := t.Normalized()
	oriented := orient(img, n)
	if n.IsPoint() {
		return oriented, nil
	}

	width := max(int(math.Round(n.Width)), 1)
	height := max(int(math.Round(n.Height)), 1)
	origin := oriented.Bounds().Min.Add(image.Pt(int(math.Round(n.X)), int(math.Round(n.Y))))

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), oriented, origin, xdraw.Src)

	return dst, nil
}

func orient(img image.Image, t domain.ImageTransform) *image.NRGBA {
	out := imaging.Clone(img)

	if t.ScaleX < 0 {
		out = imaging.FlipH(out)
	}
	if t.ScaleY < 0 {
		out = imaging.FlipV(out)
	}

	sx, sy := math.Abs(t.ScaleX), math.Abs(t.ScaleY)
	if sx != 1 || sy != 1 {
		w := max(int(math.Round(float64(out.Bounds().Dx())*sx)), 1)
		h := max(int(math.Round(float64(out.Bounds().Dy())*sy)), 1)
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}

	// Positive angles turn clockwise; imaging rotates counter-clockwise.
	if math.Mod(t.Rotate, 360) != 0 {
		out = imaging.Rotate(out, -t.Rotate, color.Transparent)
	}

	return out
}
