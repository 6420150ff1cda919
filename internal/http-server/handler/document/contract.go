package document

import (
	"context"

	"euphro-assets/internal/domain"
	"euphro-assets/internal/usecase/upload"
)

type documentUsecase interface {
	Upload(ctx context.Context, project string, files []domain.File) ([]upload.Result, error)
}
