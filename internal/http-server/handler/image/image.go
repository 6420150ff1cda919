package image

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/geometry"
	"euphro-assets/internal/http-server/handler/image/dto"
	"euphro-assets/internal/repository/storage"
	"euphro-assets/internal/usecase/crop"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxBodySize   = 1 << 20
	maxMemory     = 32 << 20
	maxUploadSize = 100 << 20
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

type ImageHandler struct {
	renderer     renderer
	storage      objectStore
	uploader     uploader
	destinations DestinationFunc
	validate     *validator.Validate
	logger       *zlog.Zerolog
}

func NewImageHandler(renderer renderer, storage objectStore, uploader uploader, destinations DestinationFunc, logger *zlog.Zerolog) *ImageHandler {
	return &ImageHandler{
		renderer:     renderer,
		storage:      storage,
		uploader:     uploader,
		destinations: destinations,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Upload stores the multipart "file" field in the image store under a fresh
// images/ path.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, "File is required", nil)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := imageExtensions[ext]; !ok {
		h.respondError(w, http.StatusUnsupportedMediaType, "Unsupported image type", fmt.Errorf("%w: %q", ErrUnsupportedType, ext))
		return
	}
	if header.Size == 0 {
		h.respondError(w, http.StatusBadRequest, "File is empty", nil)
		return
	}

	objectPath := path.Join("images", uuid.New().String()+ext)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}

	f := domain.File{Name: header.Filename, Size: header.Size, Content: file}
	if err := h.uploader.Upload(ctx, f, h.destinations(objectPath, contentType)); err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Str("path", objectPath).Msg("Failed to upload image")
		h.respondError(w, http.StatusBadGateway, "Failed to upload image", err)
		return
	}

	h.logger.Info().
		Str("filename", header.Filename).
		Str("path", objectPath).
		Int64("size", header.Size).
		Msg("Image uploaded successfully")

	h.respondJSON(w, http.StatusCreated, dto.UploadResponse{
		Path:     objectPath,
		Filename: header.Filename,
		Size:     header.Size,
	})
}

// Crop renders a region of a stored image.
func (h *ImageHandler) Crop(w http.ResponseWriter, r *http.Request) {
	req, err := parseCropRequest(r.URL.Query())
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid crop parameters", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid crop parameters", err)
		return
	}

	src := crop.NewStorageSource(req.Path, h.storage)
	raster, err := h.renderer.RenderAs(r.Context(), src, req.Transform(), crop.ParseFormat(req.Format))
	if err != nil {
		h.handleRenderError(w, err, req.Path)
		return
	}

	h.respondImage(w, raster)
}

// Markers converts pixel locations into overlay markers for an image of the
// given size.
func (h *ImageHandler) Markers(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkersRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp := dto.MarkersResponse{
		ViewBox: geometry.ViewBox(req.Width, req.Height),
		Markers: make([]geometry.Marker, 0, len(req.Locations)),
	}
	for _, loc := range req.Locations {
		resp.Markers = append(resp.Markers, geometry.MarkerFor(loc, req.Width, req.Height))
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// Annotate renders a stored image with measuring point markers drawn on it.
func (h *ImageHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req dto.AnnotateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	src := crop.NewStorageSource(req.Path, h.storage)
	raster, err := h.renderer.RenderAnnotated(r.Context(), src, req.Transform, req.Points)
	if err != nil {
		h.handleRenderError(w, err, req.Path)
		return
	}

	h.logger.Info().
		Str("path", req.Path).
		Int("points", len(req.Points)).
		Msg("Annotated image rendered")

	h.respondImage(w, raster)
}

func (h *ImageHandler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

func (h *ImageHandler) handleRenderError(w http.ResponseWriter, err error, path string) {
	var decodeErr *crop.DecodeError
	switch {
	case errors.Is(err, domain.ErrNegativeSize), errors.Is(err, domain.ErrNonFiniteValue), errors.Is(err, domain.ErrTooLarge):
		h.respondError(w, http.StatusBadRequest, "Invalid transform", err)
	case errors.Is(err, storage.ErrObjectNotFound):
		h.logger.Info().Str("path", path).Msg("Image not found")
		h.respondError(w, http.StatusNotFound, "Image not found", nil)
	case errors.As(err, &decodeErr):
		h.logger.Warn().Err(err).Str("path", path).Msg("Failed to decode image")
		h.respondError(w, http.StatusUnprocessableEntity, "Failed to decode image", err)
	default:
		h.logger.Error().Err(err).Str("path", path).Msg("Failed to render image")
		h.respondError(w, http.StatusInternalServerError, "Failed to render image", err)
	}
}

func (h *ImageHandler) respondImage(w http.ResponseWriter, raster *crop.Raster) {
	w.Header().Set("Content-Type", raster.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(raster.Data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(raster.Data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write image")
	}
}

func (h *ImageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *ImageHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}

func parseCropRequest(q url.Values) (dto.CropRequest, error) {
	req := dto.CropRequest{
		Path:   q.Get("path"),
		Format: q.Get("format"),
	}

	optional := map[string]**float64{
		"x":      &req.X,
		"y":      &req.Y,
		"width":  &req.Width,
		"height": &req.Height,
	}
	for key, dst := range optional {
		v, err := parseFloat(q, key)
		if err != nil {
			return req, err
		}
		*dst = v
	}

	plain := map[string]*float64{
		"rotate":  &req.Rotate,
		"scale_x": &req.ScaleX,
		"scale_y": &req.ScaleY,
	}
	for key, dst := range plain {
		v, err := parseFloat(q, key)
		if err != nil {
			return req, err
		}
		if v != nil {
			*dst = *v
		}
	}

	return req, nil
}

func parseFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidNumber, key, raw)
	}
	return &v, nil
}
