package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"euphro-assets/internal/config"
	"euphro-assets/internal/domain"
	"euphro-assets/internal/usecase/upload"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type Usecase struct {
	backend      backend
	destinations DestinationFunc
	uploader     uploader
	validate     *validator.Validate
	allowed      map[string]struct{}
	maxSize      int64
	retries      retry.Strategy
	logger       *zlog.Zerolog
}

func NewUsecase(backend backend, destinations DestinationFunc, uploader uploader, cfg config.UploadConfig, retries retry.Strategy, logger *zlog.Zerolog) *Usecase {
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	return &Usecase{
		backend:      backend,
		destinations: destinations,
		uploader:     uploader,
		validate:     validator.New(),
		allowed:      allowed,
		maxSize:      cfg.MaxFileSize,
		retries:      retries,
		logger:       logger,
	}
}

// Upload validates every file, then uploads them all concurrently to the
// project's document storage. Each file succeeds or fails on its own; the
// remote copy of a failed upload is deleted. Results are in input order.
func (u *Usecase) Upload(ctx context.Context, project string, files []domain.File) ([]upload.Result, error) {
	if strings.TrimSpace(project) == "" {
		return nil, ErrInvalidProject
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	for _, f := range files {
		if err := u.check(f); err != nil {
			return nil, err
		}
	}

	results := make([]upload.Result, len(files))
	items := make([]upload.Item, 0, len(files))
	positions := make([]int, 0, len(files))

	for i, f := range files {
		signedURL, err := u.backend.UploadURL(ctx, project, f.Name)
		if err != nil {
			u.logger.Error().Err(err).Str("project", project).Str("file", f.Name).Msg("Failed to get upload url")
			results[i] = upload.Result{File: f.Name, Err: fmt.Errorf("failed to get upload url: %w", err)}
			continue
		}
		items = append(items, upload.Item{File: f, Destination: u.destinations(signedURL)})
		positions = append(positions, i)
	}

	for j, res := range u.uploader.UploadAll(ctx, items) {
		results[positions[j]] = res
		if res.Err != nil {
			u.cleanup(ctx, project, res.File)
		}
	}

	uploaded := 0
	for _, res := range results {
		if res.Err == nil {
			uploaded++
		}
	}
	u.logger.Info().
		Str("project", project).
		Int("files", len(files)).
		Int("uploaded", uploaded).
		Msg("Document upload finished")

	return results, nil
}

func (u *Usecase) check(f domain.File) error {
	if err := u.validate.Struct(f); err != nil {
		return &InvalidInputError{File: f.Name, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if len(u.allowed) > 0 {
		if _, ok := u.allowed[ext]; !ok {
			return &UnsupportedExtensionError{File: f.Name, Extension: ext}
		}
	}

	if u.maxSize > 0 && f.Size > u.maxSize {
		return &InvalidInputError{File: f.Name, Err: ErrFileTooLarge}
	}
	return nil
}

func (u *Usecase) cleanup(ctx context.Context, project, name string) {
	err := retry.Do(func() error {
		return u.backend.DeleteDocument(ctx, project, name)
	}, u.retries)
	if err != nil {
		u.logger.Warn().Err(err).Str("project", project).Str("file", name).Msg("Failed to delete partial upload")
	}
}
