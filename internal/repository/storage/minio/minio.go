package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"

	"euphro-assets/internal/config"
	"euphro-assets/internal/domain"
	"euphro-assets/internal/repository/storage"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

const noSuchKey = "NoSuchKey"

type FileRepository struct {
	core     *minio.Core
	bucket   string
	partSize int64
	retries  retry.Strategy
	logger   *zlog.Zerolog
}

func NewCore(cfg config.StorageConfig) (*minio.Core, error) {
	core, err := minio.NewCore(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return core, nil
}

func NewMinIORepository(core *minio.Core, cfg config.StorageConfig, retries retry.Strategy, logger *zlog.Zerolog) *FileRepository {
	return &FileRepository{
		core:     core,
		bucket:   cfg.Bucket,
		partSize: cfg.PartSize,
		retries:  retries,
		logger:   logger,
	}
}

func (r *FileRepository) GetObject(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	var reader io.ReadCloser

	err := retry.Do(func() error {
		obj, _, _, err := r.core.GetObject(ctx, r.bucket, objectPath, minio.GetObjectOptions{})
		if err != nil {
			if minio.ToErrorResponse(err).Code == noSuchKey {
				return nil
			}
			return err
		}
		reader = obj
		return nil
	}, r.retries)
	if err != nil {
		r.logger.Error().Err(err).Str("path", objectPath).Msg("Failed to get object")
		return nil, fmt.Errorf("%w: %v", storage.ErrStorageError, err)
	}

	if reader == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, objectPath)
	}

	return reader, nil
}

func (r *FileRepository) DeleteObject(ctx context.Context, objectPath string) error {
	err := retry.Do(func() error {
		return r.core.RemoveObject(ctx, r.bucket, objectPath, minio.RemoveObjectOptions{})
	}, r.retries)
	if err != nil {
		r.logger.Error().Err(err).Str("path", objectPath).Msg("Failed to delete object")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Destination returns a multipart upload target for objectPath.
func (r *FileRepository) Destination(objectPath, contentType string) *MultipartDestination {
	return &MultipartDestination{
		repo:        r,
		object:      path.Clean(objectPath),
		contentType: contentType,
	}
}

// MultipartDestination uploads one object through the S3 multipart API.
// Each chunk becomes the part numbered Index+1.
type MultipartDestination struct {
	repo        *FileRepository
	object      string
	contentType string

	mu       sync.Mutex
	uploadID string
	parts    []minio.CompletePart
}

func (d *MultipartDestination) PartSize() int64 {
	return d.repo.partSize
}

func (d *MultipartDestination) Create(ctx context.Context, size int64) error {
	uploadID, err := d.repo.core.NewMultipartUpload(ctx, d.repo.bucket, d.object, minio.PutObjectOptions{
		ContentType: d.contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to start multipart upload: %w", err)
	}

	d.mu.Lock()
	d.uploadID = uploadID
	d.parts = nil
	d.mu.Unlock()

	d.repo.logger.Debug().
		Str("object", d.object).
		Str("upload_id", uploadID).
		Int64("size", size).
		Msg("Multipart upload started")

	return nil
}

func (d *MultipartDestination) WriteRange(ctx context.Context, chunk domain.Chunk, data io.Reader) error {
	uploadID := d.currentUploadID()
	if uploadID == "" {
		return storage.ErrNotCreated
	}

	part, err := d.repo.core.PutObjectPart(ctx, d.repo.bucket, d.object, uploadID, chunk.Index+1, data, chunk.Len(), minio.PutObjectPartOptions{
		DisableContentSha256: true,
	})
	if err != nil {
		return fmt.Errorf("failed to upload part %d: %w", chunk.Index+1, err)
	}

	d.mu.Lock()
	d.parts = append(d.parts, minio.CompletePart{PartNumber: part.PartNumber, ETag: part.ETag})
	d.mu.Unlock()

	return nil
}

func (d *MultipartDestination) Finalize(ctx context.Context) error {
	d.mu.Lock()
	uploadID := d.uploadID
	parts := append([]minio.CompletePart(nil), d.parts...)
	d.mu.Unlock()

	if uploadID == "" {
		return storage.ErrNotCreated
	}

	// S3 rejects completing an upload without parts.
	if len(parts) == 0 {
		return d.putEmpty(ctx)
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})

	if _, err := d.repo.core.CompleteMultipartUpload(ctx, d.repo.bucket, d.object, uploadID, parts, minio.PutObjectOptions{
		ContentType: d.contentType,
	}); err != nil {
		return fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	return nil
}

func (d *MultipartDestination) putEmpty(ctx context.Context) error {
	if err := d.Abort(ctx); err != nil {
		return err
	}

	if _, err := d.repo.core.PutObject(ctx, d.repo.bucket, d.object, bytes.NewReader(nil), 0, "", "", minio.PutObjectOptions{
		ContentType:          d.contentType,
		DisableContentSha256: true,
	}); err != nil {
		return fmt.Errorf("failed to put empty object: %w", err)
	}
	return nil
}

func (d *MultipartDestination) Abort(ctx context.Context) error {
	uploadID := d.currentUploadID()
	if uploadID == "" {
		return nil
	}

	if err := d.repo.core.AbortMultipartUpload(ctx, d.repo.bucket, d.object, uploadID); err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}
	return nil
}

func (d *MultipartDestination) currentUploadID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploadID
}
