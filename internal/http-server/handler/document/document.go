package document

import (
	"encoding/json"
	"errors"
	"net/http"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/http-server/handler/document/dto"
	"euphro-assets/internal/usecase/documents"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 32 << 20
	formField = "files"
)

type DocumentHandler struct {
	usecase    documentUsecase
	maxRequest int64
	logger     *zlog.Zerolog
}

// NewDocumentHandler rejects request bodies above maxRequest bytes. A
// non-positive limit disables the check.
func NewDocumentHandler(usecase documentUsecase, maxRequest int64, logger *zlog.Zerolog) *DocumentHandler {
	return &DocumentHandler{
		usecase:    usecase,
		maxRequest: maxRequest,
		logger:     logger,
	}
}

// Upload stores every file of the multipart "files" field in the project's
// document storage. Responds 207 when some files failed.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	if h.maxRequest > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequest)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[formField]
	files := make([]domain.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error().Err(err).Str("filename", fh.Filename).Msg("Failed to open file")
			h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
			return
		}
		defer f.Close()

		files = append(files, domain.File{
			Name:    fh.Filename,
			Size:    fh.Size,
			Content: f,
		})
	}

	results, err := h.usecase.Upload(r.Context(), project, files)
	if err != nil {
		h.handleUploadError(w, err, project)
		return
	}

	resp := dto.UploadResponse{
		Project: project,
		Files:   make([]dto.FileResult, 0, len(results)),
	}
	for _, res := range results {
		fr := dto.FileResult{File: res.File, Status: dto.StatusUploaded}
		if res.Err != nil {
			fr.Status = dto.StatusFailed
			fr.Error = res.Err.Error()
			resp.Failed++
		} else {
			resp.Uploaded++
		}
		resp.Files = append(resp.Files, fr)
	}

	status := http.StatusOK
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}

	h.logger.Info().
		Str("project", project).
		Int("uploaded", resp.Uploaded).
		Int("failed", resp.Failed).
		Msg("Documents uploaded")

	h.respondJSON(w, status, resp)
}

func (h *DocumentHandler) handleUploadError(w http.ResponseWriter, err error, project string) {
	var (
		extErr   *documents.UnsupportedExtensionError
		inputErr *documents.InvalidInputError
	)
	switch {
	case errors.As(err, &extErr):
		h.respondError(w, http.StatusUnsupportedMediaType, "Unsupported file type", err)
	case errors.Is(err, documents.ErrFileTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", err)
	case errors.As(err, &inputErr), errors.Is(err, documents.ErrNoFiles), errors.Is(err, documents.ErrInvalidProject):
		h.respondError(w, http.StatusBadRequest, "Invalid upload", err)
	default:
		h.logger.Error().Err(err).Str("project", project).Msg("Failed to upload documents")
		h.respondError(w, http.StatusInternalServerError, "Failed to upload documents", err)
	}
}

func (h *DocumentHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *DocumentHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
